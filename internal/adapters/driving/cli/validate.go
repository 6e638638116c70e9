package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/timeline"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a document's timeline for silent date loss",
	Long: `Analyzes a document, then compares every date found in the raw
text against the dates present in the resulting timeline. A date that
appears in the text but not in the timeline indicates an extraction
gap worth reviewing.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if analysisService == nil || documentSource == nil {
		return errors.New("analysis service not configured")
	}

	ctx := context.Background()
	doc, err := documentSource.Load(ctx, args[0])
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	result, err := analysisService.Analyze(ctx, doc, baseConfig)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	cov := timeline.Coverage(&result.Timeline, sourceDateEvents(doc))

	cmd.Printf("Source dates:   %d\n", cov.SourceDates)
	cmd.Printf("Timeline dates: %d\n", cov.TimelineDates)

	if cov.Complete() {
		cmd.Println("Coverage: complete")
		return nil
	}

	sort.Strings(cov.Missing)
	cmd.Printf("Coverage: %d date(s) missing from the timeline:\n", len(cov.Missing))
	for _, d := range cov.Missing {
		cmd.Printf("  - %s\n", d)
	}
	return nil
}

// sourceDateEvents turns every date found in the raw document text into
// a bare candidate event, so coverage can be computed against the
// timeline.
func sourceDateEvents(doc *domain.RawDocument) []domain.CandidateEvent {
	now := time.Now()

	var dates []time.Time
	if len(doc.Blocks) > 0 {
		for i := range doc.Blocks {
			dates = append(dates, domain.ExtractDates(doc.Blocks[i].Text, now)...)
		}
	} else {
		dates = domain.ExtractDates(doc.Text, now)
	}

	events := make([]domain.CandidateEvent, len(dates))
	for i, d := range dates {
		events[i] = domain.CandidateEvent{Date: d}
	}
	return events
}
