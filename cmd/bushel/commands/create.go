package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forestbush/bushel/internal/cli"
	"github.com/forestbush/bushel/internal/client"
	"github.com/forestbush/bushel/internal/rules"
)

var (
	createEnabled     bool
	createRollout     float64
	createRules       string
	createDescription string
)

var createCmd = &cobra.Command{
	Use:   "create <key>",
	Short: "Create a new feature flag",
	Long: `Create a new feature flag with the specified key and options.

Examples:
  bushel create feature_x --enabled --rollout 50
  bushel create feature_y --rules '{"rolloutPercentage":25}' --description "New feature Y"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		var ruleDoc json.RawMessage
		switch {
		case createRules != "":
			if !json.Valid([]byte(createRules)) {
				return fmt.Errorf("invalid rules JSON")
			}
			ruleDoc = json.RawMessage(createRules)
		case cmd.Flags().Changed("rollout"):
			ruleDoc, err = json.Marshal(rules.NewRollout(createRollout))
			if err != nil {
				return fmt.Errorf("failed to encode rules: %w", err)
			}
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		params := client.CreateRequest{
			Key:         key,
			Description: createDescription,
			Enabled:     &createEnabled,
			Rules:       ruleDoc,
		}

		ctx := context.Background()
		flag, err := c.CreateFlag(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to create flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully created flag '%s'\n", flag.Key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().BoolVar(&createEnabled, "enabled", false, "Enable the flag")
	createCmd.Flags().Float64Var(&createRollout, "rollout", 100, "Rollout percentage (0-100)")
	createCmd.Flags().StringVar(&createRules, "rules", "", "Flag rules as JSON")
	createCmd.Flags().StringVar(&createDescription, "description", "", "Flag description")
}
