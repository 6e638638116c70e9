package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/services"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy [file]",
	Short: "Show which strategy would be selected for a document",
	Long: `Runs strategy selection for a document without analyzing it.
Prints the chosen strategy and the estimated document complexity.`,
	Args: cobra.ExactArgs(1),
	RunE: runStrategy,
}

func init() {
	rootCmd.AddCommand(strategyCmd)
}

func runStrategy(cmd *cobra.Command, args []string) error {
	if analysisService == nil || documentSource == nil {
		return errors.New("analysis service not configured")
	}

	ctx := context.Background()
	doc, err := documentSource.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	strategy, err := analysisService.SelectStrategy(ctx, doc, baseConfig)
	if err != nil {
		return fmt.Errorf("strategy selection failed: %w", err)
	}

	cmd.Printf("Strategy: %s\n", strategy)
	cmd.Printf("Complexity: %.2f\n", services.EstimateComplexity(doc.Text))
	cmd.Printf("Length: %d characters\n", len([]rune(doc.Text)))
	return nil
}
