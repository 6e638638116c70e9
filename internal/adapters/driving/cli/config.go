package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chronicle configuration",
	Long: `View and set configuration values stored in the TOML config
file. Keys use dot notation, e.g. analysis.mode or filter.min_confidence.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long: `Sets one configuration value. Booleans, integers and floats are
stored typed; anything else is stored as a string.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// knownConfigKeys are the keys the pipeline reads, shown by config
// show even when unset.
var knownConfigKeys = []string{
	"analysis.mode",
	"analysis.intelligence_enabled",
	"analysis.hybrid_mode",
	"analysis.force_strategy",
	"analysis.fallback_to_legacy",
	"analysis.cost_limit",
	"analysis.accuracy_threshold",
	"analysis.hybrid_timeout",
	"analysis.max_concurrency",
	"filter.include_before_reference",
	"filter.min_confidence",
	"filter.start_date",
	"filter.end_date",
	"filter.include_tags",
	"filter.exclude_tags",
	"llm.provider",
	"llm.model",
	"llm.base_url",
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	cmd.Printf("Config file: %s\n\n", configStore.Path())
	for _, key := range knownConfigKeys {
		if val, ok := configStore.Get(key); ok {
			cmd.Printf("  %s = %v\n", key, val)
		} else {
			cmd.Printf("  %s = (default)\n", key)
		}
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return err
	}

	cmd.Printf("Set %s = %s\n", key, raw)
	return nil
}

// parseConfigValue stores booleans and numbers typed so the TOML file
// round-trips them correctly.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}
