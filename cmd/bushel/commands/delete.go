package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
)

var (
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a feature flag",
	Long: `Delete a feature flag.

Examples:
  bushel delete feature_x
  bushel delete feature_x --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		srvCfg, srvName, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// Confirm deletion unless --force
		if !deleteForce && !quiet {
			fmt.Printf("Are you sure you want to delete flag '%s' on server '%s'? (y/N): ", key, srvName)
			reader := bufio.NewReader(os.Stdin)
			response, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			response = strings.ToLower(strings.TrimSpace(response))
			if response != "y" && response != "yes" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		ctx := context.Background()
		if err := c.DeleteFlag(ctx, key); err != nil {
			return fmt.Errorf("failed to delete flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully deleted flag '%s'\n", key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}
