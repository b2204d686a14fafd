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
	updateEnabled     bool
	updateRollout     float64
	updateRules       string
	updateClearRules  bool
	updateDescription string
)

var updateCmd = &cobra.Command{
	Use:   "update <key>",
	Short: "Update a feature flag",
	Long: `Apply a partial update to an existing feature flag. Only the fields
given on the command line are changed.

Examples:
  bushel update feature_x --enabled=false
  bushel update feature_x --rollout 75
  bushel update feature_x --rules '{"rolloutPercentage":10}'
  bushel update feature_x --clear-rules`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		srvCfg, _, err := cli.GetServerConfig(server, baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		var params client.UpdateRequest
		if cmd.Flags().Changed("enabled") {
			params.Enabled = &updateEnabled
		}
		if cmd.Flags().Changed("description") {
			params.Description = &updateDescription
		}
		switch {
		case updateClearRules:
			params.Rules = json.RawMessage("null")
		case updateRules != "":
			if !json.Valid([]byte(updateRules)) {
				return fmt.Errorf("invalid rules JSON")
			}
			params.Rules = json.RawMessage(updateRules)
		case cmd.Flags().Changed("rollout"):
			params.Rules, err = json.Marshal(rules.NewRollout(updateRollout))
			if err != nil {
				return fmt.Errorf("failed to encode rules: %w", err)
			}
		}

		if params.Enabled == nil && params.Description == nil && params.Rules == nil {
			return fmt.Errorf("nothing to update: provide at least one of --enabled, --description, --rollout, --rules, --clear-rules")
		}

		c := client.NewClient(srvCfg.BaseURL, srvCfg.APIKey)

		ctx := context.Background()
		flag, err := c.UpdateFlag(ctx, key, params)
		if err != nil {
			return fmt.Errorf("failed to update flag: %w", err)
		}

		if !quiet {
			fmt.Printf("Successfully updated flag '%s'\n", flag.Key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVar(&updateEnabled, "enabled", false, "Enable/disable the flag")
	updateCmd.Flags().Float64Var(&updateRollout, "rollout", 0, "Rollout percentage (0-100)")
	updateCmd.Flags().StringVar(&updateRules, "rules", "", "Flag rules as JSON")
	updateCmd.Flags().BoolVar(&updateClearRules, "clear-rules", false, "Remove all rules from the flag")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "Flag description")

	updateCmd.Flags().Lookup("enabled").NoOptDefVal = "true"
}
