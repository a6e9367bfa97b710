package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/httpclient"
)

func (c *cli) doctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the commerce API, session store and event brokers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			report := c.app.Health.Run(cmd.Context())
			out := struct {
				health.Report `yaml:",inline"`
				Breaker       httpclient.BreakerStatus `json:"breaker" yaml:"breaker"`
			}{report, c.app.Breaker()}

			if err := c.render(cmd, out, func(w io.Writer) error {
				rows := make([]string, 0, len(report.Checks))
				for _, chk := range report.Checks {
					rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s", chk.Name, chk.Status, chk.Duration.Round(time.Millisecond), chk.Error))
				}
				if err := table(w, "CHECK\tSTATUS\tTOOK\tERROR", rows); err != nil {
					return err
				}
				_, err := fmt.Fprintf(w, "breaker: %s (%d/%d failed)\n", out.Breaker.State, out.Breaker.Failures, out.Breaker.Requests)
				return err
			}); err != nil {
				return err
			}
			if report.Status != health.StatusUp {
				return errors.New("some dependencies are down")
			}
			return nil
		},
	}
}
