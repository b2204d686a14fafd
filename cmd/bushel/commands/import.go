package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
	"github.com/forestbush/bushel/internal/store"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import flags from a file",
	Long: `Import flags from a YAML or JSON file. Existing flags with the same
key are updated.

Examples:
  bushel import flags.yaml
  bushel import flags.yaml --dry-run
  bushel import flags.yaml --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		var importData ExportFormat
		if err := yaml.Unmarshal(data, &importData); err != nil {
			return fmt.Errorf("failed to parse file: %w", err)
		}

		if len(importData.Flags) == 0 {
			return fmt.Errorf("no flags found in file")
		}

		if verbose {
			fmt.Printf("Found %d flag(s) to import\n", len(importData.Flags))
		}

		// Dry run mode - just validate and show what would be imported
		if importDryRun {
			fmt.Println("Dry run mode - the following flags would be imported:")
			for _, flag := range importData.Flags {
				fmt.Printf("  - %s (enabled: %v)\n", flag.Key, flag.Enabled)
			}
			return nil
		}

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)
		ctx := context.Background()

		successCount := 0
		errorCount := 0

		for _, flag := range importData.Flags {
			if verbose {
				fmt.Printf("Importing flag: %s\n", flag.Key)
			}

			if err := importFlag(ctx, c, flag); err != nil {
				errorCount++
				fmt.Fprintf(os.Stderr, "Failed to import flag '%s': %v\n", flag.Key, err)
				if !importForce {
					return fmt.Errorf("import failed, use --force to continue on errors")
				}
			} else {
				successCount++
			}
		}

		if !quiet {
			fmt.Printf("Import complete: %d succeeded, %d failed\n", successCount, errorCount)
		}

		if errorCount > 0 && !importForce {
			return fmt.Errorf("import completed with errors")
		}

		return nil
	},
}

// importFlag creates the flag, falling back to a full update when the key
// already exists.
func importFlag(ctx context.Context, c *client.Client, flag store.Flag) error {
	var ruleDoc json.RawMessage
	if flag.Rules != nil {
		doc, err := json.Marshal(flag.Rules)
		if err != nil {
			return fmt.Errorf("failed to encode rules: %w", err)
		}
		ruleDoc = doc
	}

	enabled := flag.Enabled
	_, err := c.CreateFlag(ctx, client.CreateRequest{
		Key:         flag.Key,
		Description: flag.Description,
		Enabled:     &enabled,
		Rules:       ruleDoc,
	})
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "status 409") {
		return err
	}

	if ruleDoc == nil {
		ruleDoc = json.RawMessage("null")
	}
	description := flag.Description
	_, err = c.UpdateFlag(ctx, flag.Key, client.UpdateRequest{
		Description: &description,
		Enabled:     &enabled,
		Rules:       ruleDoc,
	})
	return err
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate without importing")
	importCmd.Flags().BoolVar(&importForce, "force", false, "Continue on errors")
}
