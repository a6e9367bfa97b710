package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/session"
)

func (c *cli) signInCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in and keep the session for later commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = readLine(cmd.InOrStdin())
			}
			sess, err := c.app.Session.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return c.render(cmd, sess.User, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "signed in as %s\n", sess.User.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (c *cli) signUpCommand() *cobra.Command {
	var in session.SignUpInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Password == "" {
				in.Password = readLine(cmd.InOrStdin())
			}
			if err := c.app.Session.SignUp(cmd.Context(), in); err != nil {
				return err
			}
			return c.render(cmd, map[string]string{"email": strings.TrimSpace(in.Email)}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "account created, you can sign in now")
				return err
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "first name")
	f.StringVar(&in.LastName, "last-name", "", "last name")
	f.IntVar(&in.Age, "age", 0, "age")
	f.StringVar(&in.Email, "email", "", "email")
	f.StringVar(&in.Password, "password", "", "password (read from stdin when omitted)")
	f.StringVar(&in.Address, "address", "", "street address")
	f.StringVar(&in.Phone, "phone", "", "phone, e.g. +995599123456")
	f.StringVar(&in.Zipcode, "zipcode", "", "zip code")
	f.StringVar(&in.Avatar, "avatar", "", "avatar URL")
	f.StringVar(&in.Gender, "gender", "", "gender as the storefront records it, e.g. MALE or FEMALE")
	return cmd
}

func (c *cli) signOutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Session.SignOut(cmd.Context()); err != nil {
				return err
			}
			return c.render(cmd, map[string]bool{"signed_out": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "signed out")
				return err
			})
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := c.app.Session.Session(cmd.Context())
			if err != nil {
				return err
			}
			badge, err := c.app.Cart.Badge(cmd.Context())
			if err != nil {
				return err
			}
			type whoami struct {
				Email     string `json:"email,omitempty" yaml:"email,omitempty"`
				FirstName string `json:"first_name,omitempty" yaml:"first_name,omitempty"`
				SignedIn  bool   `json:"signed_in" yaml:"signed_in"`
				CartItems int    `json:"cart_items" yaml:"cart_items"`
			}
			out := whoami{CartItems: badge}
			if sess != nil && sess.User != nil {
				out.Email = sess.User.Email
				out.FirstName = sess.User.FirstName
			}
			out.SignedIn = sess != nil && sess.AccessToken != ""
			return c.render(cmd, out, func(w io.Writer) error {
				if !out.SignedIn {
					_, err := fmt.Fprintln(w, "not signed in")
					return err
				}
				_, err := fmt.Fprintf(w, "%s (%s), %d in cart\n", out.FirstName, out.Email, out.CartItems)
				return err
			})
		},
	}
}

func readLine(r io.Reader) string {
	line, _ := bufio.NewReader(r).ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}
