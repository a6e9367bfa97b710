package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/cart"
)

func (c *cli) cartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := c.app.Cart.View(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, view, func(w io.Writer) error {
				if len(view.Items) == 0 {
					_, err := fmt.Fprintln(w, "your cart is empty")
					return err
				}
				rows := make([]string, 0, len(view.Items))
				for _, it := range view.Items {
					more := "yes"
					if !it.CanIncrement {
						more = "no"
					}
					rows = append(rows, fmt.Sprintf("%s\t%s\t%d\t%s\t%s",
						it.ProductID, it.Product.Title, it.Quantity, money(it.PricePerUnit), more))
				}
				if err := table(w, "ID\tTITLE\tQTY\tUNIT\tCAN ADD", rows); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "total: %d items, %s\n", view.Total.Quantity, money(view.Total.Price))
				return err
			})
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add units of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutation(cmd, func() (*cart.Result, error) {
				return c.app.Cart.Add(cmd.Context(), args[0], quantity)
			})
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "n", 1, "units to add")

	var confirmed bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.mutation(cmd, func() (*cart.Result, error) {
				return c.app.Cart.Clear(cmd.Context(), confirmed)
			})
		},
	}
	clearCmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "confirm clearing the cart")

	cmd.AddCommand(
		add,
		c.lineCommand("inc <product-id>", "Add one unit to a line", (*cart.Engine).Increment),
		c.lineCommand("dec <product-id>", "Take one unit off a line, removing it at one", (*cart.Engine).Decrement),
		c.lineCommand("rm <product-id>", "Remove a line", (*cart.Engine).Remove),
		clearCmd,
		&cobra.Command{
			Use:   "checkout",
			Short: "Place an order for the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.mutation(cmd, func() (*cart.Result, error) {
					return c.app.Cart.Checkout(cmd.Context())
				})
			},
		},
		&cobra.Command{
			Use:   "badge",
			Short: "Print the number of units in the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := c.app.Cart.Badge(cmd.Context())
				if err != nil {
					return err
				}
				return c.render(cmd, map[string]int{"badge": n}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, strconv.Itoa(n))
					return err
				})
			},
		},
	)
	return cmd
}

type lineOp func(e *cart.Engine, ctx context.Context, productID string) (*cart.Result, error)

func (c *cli) lineCommand(use, short string, op lineOp) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.mutation(cmd, func() (*cart.Result, error) {
				return op(c.app.Cart, cmd.Context(), args[0])
			})
		},
	}
}

// mutation runs a cart write and prints the server's cart afterwards.
func (c *cli) mutation(cmd *cobra.Command, write func() (*cart.Result, error)) error {
	res, err := write()
	if err != nil {
		return err
	}
	return c.render(cmd, res, func(w io.Writer) error {
		if res.Cart.Empty() {
			_, err := fmt.Fprintln(w, "cart is empty")
			return err
		}
		rows := make([]string, 0, len(res.Cart.Lines))
		for _, l := range res.Cart.Lines {
			rows = append(rows, fmt.Sprintf("%s\t%d\t%s", l.ProductID, l.Quantity, money(l.PricePerUnit)))
		}
		if err := table(w, "ID\tQTY\tUNIT", rows); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "cart: %d items, %s\n", res.Badge, money(res.Cart.Total.Price))
		return err
	})
}
