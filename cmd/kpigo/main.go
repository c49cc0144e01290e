package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/arnold/kpigo-api/internal/config"
	"github.com/arnold/kpigo-api/internal/database"
	"github.com/arnold/kpigo-api/internal/handlers"
	"github.com/arnold/kpigo-api/internal/logging"
	"github.com/arnold/kpigo-api/internal/routes"
	"github.com/arnold/kpigo-api/internal/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kpigo",
		Short:         "KPI Go API server and admin tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSeedCmd())
	return root
}

// setup loads config, installs the logger and opens the database.
func setup() (*config.Config, error) {
	cfg := config.Load()
	logging.SetLogger(logging.New(cfg.LogLevel))

	if err := database.Connect(cfg, logging.GetLogger()); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(database.DB); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return cfg, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			log := logging.GetLogger()

			if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
				return err
			}
			services.Notifications = services.NewNotifier(database.DB, services.Push, handlers.WS)

			app := routes.NewApp(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				log.Info("shutting down")
				if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
					log.WithError(err).Warn("shutdown")
				}
			}()

			log.WithField("port", cfg.Port).Info("KPI Go API listening")
			return app.Listen(":" + cfg.Port)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := setup(); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var file string
	var year int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo company",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if file == "" {
				file = cfg.SeedFile
			}

			f, err := database.LoadFixture(file)
			if err != nil {
				return err
			}
			company, err := database.Seed(database.DB, f, year, cfg.TrialDays)
			if err != nil {
				return err
			}
			if company == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "company %q already exists, nothing to do\n", f.Company.Name)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%s) subdomain=%s\n", company.Name, company.ID, company.Subdomain)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "fixture YAML (default: built-in demo company)")
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "year the monthly progress is placed in")
	return cmd
}
