package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	server  string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bushel",
	Short: "CLI tool for managing feature flags",
	Long: `Bushel is a command-line tool for managing feature flags in the bushel service.

It provides commands for creating, reading, updating, and deleting flags,
evaluating flags for a caller, and importing and exporting flag sets.

Examples:
  bushel list
  bushel create my_flag --enabled
  bushel get my_flag --format json
  bushel evaluate my_flag --caller user-42
  bushel export --output flags.yaml`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the bushel API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for admin endpoints")
	rootCmd.PersistentFlags().StringVar(&server, "server", "", "Named server from the config file")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
