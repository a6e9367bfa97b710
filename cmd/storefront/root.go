package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/tracing"
)

// cli carries state shared by every command of one invocation.
type cli struct {
	output string
	app    *app.App
	logger *slog.Logger
	span   trace.Span
}

// run executes one CLI invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if c.span != nil {
		tracing.EndSpan(c.span, err)
	}
	c.close()
	if err != nil {
		fmt.Fprintln(stderr, "error:", apperrors.UserMessage(err))
	}
	return apperrors.ExitCode(err)
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "storefront",
		Short:             "Browse the shop and manage your cart from the terminal",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVarP(&c.output, "output", "o", formatText, "output format: text, json or yaml")

	root.AddCommand(
		c.signInCommand(),
		c.signUpCommand(),
		c.signOutCommand(),
		c.whoamiCommand(),
		c.browseCommand(),
		c.sidebarCommand(),
		c.productCommand(),
		c.rateCommand(),
		c.cartCommand(),
		c.doctorCommand(),
	)
	return root
}

// setup loads configuration, wires the app and scopes the command context
// with a correlation id, a root span and the signed-in user.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if !validFormat(c.output) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown output format %q", c.output))
	}

	cfg, err := config.Load()
	if err != nil {
		return apperrors.Internal(err)
	}
	c.logger = logger.New(app.ServiceName, cfg.LogLevel)

	a, err := app.New(cmd.Context(), cfg, c.logger)
	if err != nil {
		return apperrors.Internal(err)
	}
	c.app = a

	ctx := logger.NewCorrelationID(cmd.Context())
	ctx, c.span = tracing.StartCommandSpan(ctx, app.ServiceName, cmd.CommandPath())
	if u, err := a.Session.User(ctx); err == nil && u != nil {
		ctx = logger.WithUser(ctx, u.Email)
	}
	cmd.SetContext(logger.NewContext(ctx, c.logger))
	return nil
}

func (c *cli) close() {
	if c.app == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = c.app.Close(ctx)
}
