package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/lambda"
	"github.com/jward/lambda/internal/config"
	"github.com/jward/lambda/internal/telemetry"
)

func main() {
	a := &app{}
	err := a.execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		if !a.errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

// app holds the state shared by every command of one invocation.
type app struct {
	flagFormat    string
	flagBackend   string
	flagDB        string
	flagDgraphURL string

	cfg      config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error

	// errorHandled is set by outputError so main() doesn't double-print.
	errorHandled bool
}

func (a *app) execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		if serr := a.shutdown(context.Background()); serr != nil && err == nil {
			err = fmt.Errorf("telemetry shutdown: %w", serr)
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lambda",
		Short:         "Run GraphQL field resolvers written as Risor scripts",
		Long:          "Lambda loads a Risor script that registers GraphQL field resolvers and dispatches resolution events to them, backed by a Dgraph alpha or a local SQLite node store.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		// No Run; prints help by default.
	}

	root.PersistentFlags().StringVar(&a.flagFormat, "format", "json", "output format: json|text")
	root.PersistentFlags().StringVar(&a.flagBackend, "backend", "", "store backend: none|sqlite|dgraph (default: $LAMBDA_BACKEND or none)")
	root.PersistentFlags().StringVar(&a.flagDB, "db", "", "SQLite database path (default: $LAMBDA_DB or lambda.db)")
	root.PersistentFlags().StringVar(&a.flagDgraphURL, "dgraph-url", "", "Dgraph alpha URL (default: $LAMBDA_DGRAPH_URL or http://localhost:8080)")

	root.AddCommand(a.resolveCmd())
	root.AddCommand(a.resolversCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.importCmd())
	return root
}

// setup loads the environment config, applies flag overrides and installs
// logging and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	if err := validateFormat(a.flagFormat); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = a.flagBackend
	}
	if flags.Changed("db") {
		cfg.DB = a.flagDB
	}
	if flags.Changed("dgraph-url") {
		cfg.DgraphURL = a.flagDgraphURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.shutdown, err = telemetry.Setup(cmd.Context(), cfg.OTLPEndpoint, "lambda")
	return err
}

// engine builds a lambda.Engine for the configured backend.
func (a *app) engine() (*lambda.Engine, error) {
	opts := []lambda.Option{lambda.WithLogger(a.logger)}
	switch a.cfg.Backend {
	case config.BackendSQLite:
		opts = append(opts, lambda.WithSQLite(a.cfg.DB))
	case config.BackendDgraph:
		opts = append(opts, lambda.WithDgraph(a.cfg.DgraphURL, &http.Client{Timeout: a.cfg.HTTPTimeout}))
	}
	e, err := lambda.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	return e, nil
}

// loadScript builds an engine and loads the script at path. The caller
// closes the engine.
func (a *app) loadScript(ctx context.Context, path string) (*lambda.Engine, *lambda.Script, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("--script is required")
	}
	e, err := a.engine()
	if err != nil {
		return nil, nil, err
	}
	s, err := e.LoadScriptFile(ctx, path)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, s, nil
}
