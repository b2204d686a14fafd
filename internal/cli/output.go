package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/forestbush/bushel/internal/engine"
	"github.com/forestbush/bushel/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintFlags outputs flags in the specified format
func PrintFlags(flags []store.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(flags)
	case FormatYAML:
		return printYAML(flags)
	case FormatTable:
		return printFlagTable(flags)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintFlag outputs a single flag in the specified format
func PrintFlag(flag *store.Flag, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(flag)
	case FormatYAML:
		return printYAML(flag)
	case FormatTable:
		return printFlagTable([]store.Flag{*flag})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResult outputs an evaluation decision in the specified format
func PrintResult(result *engine.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(result)
	case FormatYAML:
		return printYAML(result)
	case FormatTable:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Key", "Enabled", "Reason")
		table.Append(result.Key, fmt.Sprintf("%t", result.Enabled), string(result.Reason))
		return table.Render()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFlagTable(flags []store.Flag) error {
	table := tablewriter.NewWriter(os.Stdout)

	table.Header("Key", "Enabled", "Rollout", "Description", "Created At")

	for _, flag := range flags {
		enabled := "false"
		if flag.Enabled {
			enabled = "true"
		}

		rollout := "-"
		if flag.Rules != nil && flag.Rules.RolloutPercentage != nil {
			rollout = fmt.Sprintf("%g%%", *flag.Rules.RolloutPercentage)
		}

		description := flag.Description
		if len(description) > 40 {
			description = description[:37] + "..."
		}

		table.Append(
			flag.Key,
			enabled,
			rollout,
			description,
			flag.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}
