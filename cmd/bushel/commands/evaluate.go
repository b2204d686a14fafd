package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
)

var (
	evaluateCaller string
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <key>",
	Short: "Evaluate a feature flag",
	Long: `Evaluate a feature flag and print the decision. Without --caller the
evaluation is anonymous and rollout flags resolve randomly.

Examples:
  bushel evaluate feature_x --caller user-42
  bushel evaluate feature_x --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		ctx := context.Background()
		result, err := c.Evaluate(ctx, key, evaluateCaller)
		if err != nil {
			return fmt.Errorf("failed to evaluate flag: %w", err)
		}

		if !quiet {
			return cli.PrintResult(result, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateCaller, "caller", "", "Caller identity for sticky rollout bucketing")
}
