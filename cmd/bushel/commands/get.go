package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a feature flag",
	Long: `Get details of a specific feature flag.

Examples:
  bushel get feature_x
  bushel get feature_x --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		ctx := context.Background()
		flag, err := c.GetFlag(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to get flag: %w", err)
		}

		if !quiet {
			return cli.PrintFlag(flag, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
