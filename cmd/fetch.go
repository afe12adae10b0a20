package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rafaelordanini/ANP-GRU/internal/service"
)

// newFetchCmd creates and configures the 'fetch' subcommand, a one-shot run
// of the price pipeline that prints the payload to stdout.
func newFetchCmd() *cobra.Command {
	var (
		refresh bool
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Runs the price pipeline once and prints the JSON payload",
		Long: `Downloads the current weekly workbook, extracts the configured
municipality's prices, and prints the API payload. Useful for cron jobs and
for checking what the endpoint would serve.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetchCommand(cmd, refresh, summary)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the in-process result cache")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the nationwide per-fuel summary instead of the municipality payload")
	return cmd
}

func runFetchCommand(cmd *cobra.Command, refresh, summary bool) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	opts := service.Options{ForceRefresh: refresh}
	var payload any
	if summary {
		payload, err = appInstance.GetService().Summary(cmd.Context(), opts)
	} else {
		payload, err = appInstance.GetService().Latest(cmd.Context(), opts)
	}
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
