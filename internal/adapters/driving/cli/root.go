// Package cli provides the chronicle command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driving"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	analysisService driving.AnalysisService
	documentSource  driven.DocumentSource
	historyStore    driven.PerformanceHistory
	configStore     driven.ConfigStore
	codeStore       driven.DiseaseCodeStore

	// baseConfig is the analysis configuration loaded from the config
	// store; commands copy it and apply flag overrides.
	baseConfig = domain.DefaultAnalysisConfig()
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "chronicle",
	Short: "Adaptive analysis of scanned medical insurance documents",
	Long: `Chronicle reconstructs medical event timelines from recovered
document text. It chunks and scores the text, extracts dated events,
institutions and diagnosis codes, and merges them into a sorted,
deduplicated timeline with temporal filtering.

Per document it selects a processing strategy: a fast local-heuristic
pipeline, an LLM-assisted pipeline, or a hybrid run that fuses both.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Services groups the dependencies the commands need.
type Services struct {
	Analysis driving.AnalysisService
	Source   driven.DocumentSource
	History  driven.PerformanceHistory
	Config   driven.ConfigStore
	Codes    driven.DiseaseCodeStore

	// BaseConfig is the analysis configuration resolved from the
	// config store.
	BaseConfig domain.AnalysisConfig
}

// SetServices injects the service dependencies. Must be called before
// Execute.
func SetServices(s Services) {
	analysisService = s.Analysis
	documentSource = s.Source
	historyStore = s.History
	configStore = s.Config
	codeStore = s.Codes
	baseConfig = s.BaseConfig
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
