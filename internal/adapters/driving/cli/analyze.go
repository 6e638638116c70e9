package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

var (
	analyzeMode      string
	analyzeStrategy  string
	analyzeHybrid    bool
	analyzeCostLimit int
	analyzeRefDate   string
	analyzeJSON      bool
	analyzeAudit     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a document and print its timeline",
	Long: `Builds a medical event timeline from a document file.
Plain .txt files are treated as recovered text; .json files as
structured OCR output with page-indexed blocks.

The processing strategy (legacy, intelligence or hybrid) is selected
per document unless forced with --strategy.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "analysis mode: fast, balanced or thorough")
	analyzeCmd.Flags().StringVar(&analyzeStrategy, "strategy", "", "force a strategy: legacy, intelligence or hybrid")
	analyzeCmd.Flags().BoolVar(&analyzeHybrid, "hybrid", false, "run both pipelines and fuse the results")
	analyzeCmd.Flags().IntVar(&analyzeCostLimit, "cost-limit", 0, "document token budget (0 = from config)")
	analyzeCmd.Flags().StringVar(&analyzeRefDate, "reference-date", "", "reference date YYYY-MM-DD (e.g. enrollment date)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeAudit, "audit", false, "include the audit trail in the output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil || documentSource == nil {
		return errors.New("analysis service not configured")
	}

	cfg, err := analysisFlagsConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	doc, err := documentSource.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	if analyzeRefDate != "" {
		ref, err := time.Parse("2006-01-02", analyzeRefDate)
		if err != nil {
			return fmt.Errorf("invalid --reference-date %q (want YYYY-MM-DD)", analyzeRefDate)
		}
		doc.ReferenceDate = ref
	}

	result, err := analysisService.Analyze(ctx, doc, cfg)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeJSON {
		return outputResultJSON(cmd, result)
	}
	return outputResultText(cmd, result)
}

// analysisFlagsConfig copies the base configuration and applies flag
// overrides.
func analysisFlagsConfig() (domain.AnalysisConfig, error) {
	cfg := baseConfig

	if analyzeMode != "" {
		m := domain.AnalysisMode(analyzeMode)
		switch m {
		case domain.ModeFast, domain.ModeBalanced, domain.ModeThorough:
			cfg.Mode = m
		default:
			return cfg, fmt.Errorf("unknown mode %q", analyzeMode)
		}
	}
	if analyzeStrategy != "" {
		s := domain.Strategy(analyzeStrategy)
		if !s.Valid() {
			return cfg, fmt.Errorf("unknown strategy %q", analyzeStrategy)
		}
		cfg.ForceStrategy = s
	}
	if analyzeHybrid {
		cfg.HybridMode = true
	}
	if analyzeCostLimit > 0 {
		cfg.CostLimit = analyzeCostLimit
	}
	return cfg, nil
}

func outputResultText(cmd *cobra.Command, result *domain.StrategyResult) error {
	tl := &result.Timeline

	if tl.Len() == 0 {
		cmd.Println("No dated events found.")
	} else {
		cmd.Printf("Timeline: %d entries, %s .. %s\n\n",
			tl.Len(), domain.FormatDate(tl.StartDate), domain.FormatDate(tl.EndDate))

		for i := range tl.Entries {
			e := &tl.Entries[i]
			printEntry(cmd, e)
		}
	}

	cmd.Printf("Retained: %d  Excluded: %d  Before reference: %d\n",
		len(result.Filter.Retained), len(result.Filter.Excluded), len(result.Filter.BeforeReference))

	m := &result.Metrics
	cmd.Printf("Strategy: %s (%.1fs", result.Strategy, m.Duration.Seconds())
	if m.TokenCost > 0 {
		cmd.Printf(", %d tokens, %d LLM calls", m.TokenCost, m.LLMCalls)
	}
	cmd.Println(")")

	if analyzeAudit && len(result.Audit) > 0 {
		cmd.Printf("\nAudit trail (%d events without a resolved date):\n", len(result.Audit))
		for i := range result.Audit {
			cmd.Printf("  - %s\n", firstLine(result.Audit[i].RawText))
		}
	}

	return nil
}

func printEntry(cmd *cobra.Command, e *domain.TimelineEntry) {
	header := fmt.Sprintf("[%s]", domain.FormatDate(e.Date))
	if e.Institution != "" {
		header += " " + e.Institution
	}
	if e.MergedCount > 1 {
		header += fmt.Sprintf(" (x%d)", e.MergedCount)
	}
	cmd.Printf("%s (%.2f)\n", header, e.Confidence)

	if tags := e.SortedTags(); len(tags) > 0 {
		cmd.Printf("    tags: %s\n", strings.Join(tags, ", "))
	}
	cmd.Printf("    %s\n", firstLine(e.RawText))
}

func outputResultJSON(cmd *cobra.Command, result *domain.StrategyResult) error {
	out := struct {
		Strategy domain.Strategy           `json:"strategy"`
		Timeline domain.Timeline           `json:"timeline"`
		Filter   domain.FilterResult       `json:"filter"`
		Metrics  domain.PerformanceMetrics `json:"metrics"`
		Audit    []domain.CandidateEvent   `json:"audit,omitempty"`
	}{
		Strategy: result.Strategy,
		Timeline: result.Timeline,
		Filter:   result.Filter,
		Metrics:  result.Metrics,
	}
	if analyzeAudit {
		out.Audit = result.Audit
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
