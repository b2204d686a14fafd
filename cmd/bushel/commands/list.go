package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
	"github.com/forestbush/bushel/internal/store"
)

var (
	listEnabledOnly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all feature flags",
	Long: `List all feature flags, newest first.

Examples:
  bushel list
  bushel list --format json
  bushel list --enabled-only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		ctx := context.Background()
		flags, err := c.ListFlags(ctx)
		if err != nil {
			return fmt.Errorf("failed to list flags: %w", err)
		}

		if listEnabledOnly {
			var enabled []store.Flag
			for _, f := range flags {
				if f.Enabled {
					enabled = append(enabled, f)
				}
			}
			flags = enabled
		}

		if !quiet {
			if len(flags) == 0 {
				fmt.Println("No flags found")
				return nil
			}
			return cli.PrintFlags(flags, cli.OutputFormat(format))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only enabled flags")
}
