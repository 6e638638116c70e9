package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [strategy]",
	Short: "Show recent per-strategy performance records",
	Long: `Prints the rolling performance history the strategy selector
consults. Without an argument all strategies are shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum records per strategy")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	strategies := []domain.Strategy{
		domain.StrategyLegacy,
		domain.StrategyIntelligence,
		domain.StrategyHybrid,
	}
	if len(args) == 1 {
		s := domain.Strategy(args[0])
		if !s.Valid() {
			return fmt.Errorf("unknown strategy %q", args[0])
		}
		strategies = []domain.Strategy{s}
	}

	ctx := context.Background()
	for _, s := range strategies {
		records, err := historyStore.Recent(ctx, s, historyLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}

		cmd.Printf("[%s] %d record(s)\n", s, len(records))
		for i := range records {
			r := &records[i]
			cmd.Printf("  %s  quality=%.2f  duration=%s  tokens=%d\n",
				r.RecordedAt.Format("2006-01-02 15:04"), r.QualityScore, r.Duration.Round(10*time.Millisecond), r.TokenCost)
		}
		cmd.Println()
	}

	return nil
}
