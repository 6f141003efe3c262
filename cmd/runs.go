package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"covidexport/internal/config"
)

// runsCommand constructs the 'runs' subcommand printing the latest recorded
// export runs as JSON.
func runsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Prints the latest export runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			limit, _ := cmd.Flags().GetUint("limit")

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			runs, err := strg.LastRuns(ctx, limit)
			if err != nil {
				return err //nolint: wrapcheck
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(runs) //nolint: wrapcheck
		},
		SilenceUsage: true,
	}

	cmd.Flags().Uint("limit", 10, "Number of runs to print")

	return cmd
}
