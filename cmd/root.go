package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/app"
	"github.com/rafaelordanini/ANP-GRU/internal/clock/system"
	"github.com/rafaelordanini/ANP-GRU/internal/config"
	"github.com/rafaelordanini/ANP-GRU/internal/service"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetConfig() config.Config
	GetLogger() *zap.Logger
	GetClock() *system.Clock
	GetService() *service.Service
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func(cfgPath string) (App, error) = func(cfgPath string) (App, error) {
	return app.NewApp(cfgPath)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anpgru",
		Short: "Weekly fuel-price endpoint for the GUARULHOS municipality.",
		Long: `anpgru serves the latest weekly fuel prices published by the Brazilian
petroleum agency. It locates the current municipality workbook, downloads it,
extracts one municipality's gasoline, ethanol, diesel, and CNG prices, and
exposes them as JSON over HTTP or as a one-shot CLI run.`,

		// This hook runs BEFORE the subcommand's RunE and is where the
		// application services get built and injected.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults plus ANPGRU_* environment variables apply)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "anpgru: %v\n", err)
		os.Exit(1)
	}
}
