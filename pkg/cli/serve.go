package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/crudgen/pkg/config"
)

type serveFlags struct {
	port        int
	logLevel    string
	logFormat   string
	logFile     string
	driver      string
	dsn         string
	openapiPath string
	cors        bool
	rateLimit   float64
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CRUD server (foreground)",
		Example: `  # Serve the resources of a config file
  crudgen serve --config people.yaml

  # Override the port and use a SQLite file
  crudgen serve -c people.yaml -p 3000 --driver sqlite --dsn file:people.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	f.register(cmd)
	return cmd
}

func (f *serveFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.port, "port", "p", config.Default().Server.Port, "HTTP server port")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file")
	cmd.Flags().StringVar(&f.driver, "driver", "", "Store driver (memory, sqlite, postgres, mysql)")
	cmd.Flags().StringVar(&f.dsn, "dsn", "", "Store data source name")
	cmd.Flags().StringVar(&f.openapiPath, "openapi-path", "", "Serve the OpenAPI document at this path")
	cmd.Flags().BoolVar(&f.cors, "cors", false, "Allow cross-origin requests from any origin")
	cmd.Flags().Float64Var(&f.rateLimit, "rate-limit", 0, "Requests per second allowed per client (0 disables)")
}

// apply copies the flags the user set over cfg.
func (f *serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Server.Port = f.port
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if flags.Changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	if flags.Changed("driver") {
		cfg.Store.Driver = f.driver
	}
	if flags.Changed("dsn") {
		cfg.Store.DSN = f.dsn
	}
	if flags.Changed("openapi-path") {
		cfg.Server.OpenAPIPath = f.openapiPath
	}
	if flags.Changed("cors") {
		cfg.Server.CORS.Enabled = f.cors
	}
	if flags.Changed("rate-limit") {
		cfg.Server.RateLimit.RequestsPerSecond = f.rateLimit
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	log, closeLog, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	app, err := config.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	if len(app.Resources) == 0 {
		log.Warn("no resources configured; only /healthz is served")
	}
	if err := app.Server.Start(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "crudgen listening on %s (%d resources, %s store)\n",
		app.Server.Addr(), len(app.Resources), cfg.Store.Driver)

	<-ctx.Done()
	if err := app.Server.Stop(context.Background()); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	succeeded, failed := app.Metrics.Totals()
	log.Info("server stopped", "operations", succeeded, "errors", failed)
	return nil
}
