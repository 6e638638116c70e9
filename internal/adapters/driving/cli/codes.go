package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Manage the disease code index",
}

var codesImportCmd = &cobra.Command{
	Use:   "import <codebook.json>",
	Short: "Import a codebook file into the disease code index",
	Long: `Loads a JSON codebook into the disease code index consulted by
the tagger and the chunk scorer. The file is an array of entries:

  [{"code": "C16.9", "kor_name": "위암", "eng_name": "Malignant neoplasm
    of stomach", "category": "신생물", "deprecated": false,
    "replaced_by": ""}]

Existing entries with the same code are updated.`,
	Args: cobra.ExactArgs(1),
	RunE: runCodesImport,
}

var codesLookupCmd = &cobra.Command{
	Use:   "lookup <code>",
	Short: "Look up a code in the disease code index",
	Args:  cobra.ExactArgs(1),
	RunE:  runCodesLookup,
}

func init() {
	codesCmd.AddCommand(codesImportCmd)
	codesCmd.AddCommand(codesLookupCmd)
	rootCmd.AddCommand(codesCmd)
}

// codebookEntry is the codebook file schema. Field names follow the
// insurer export format.
type codebookEntry struct {
	Code       string `json:"code"`
	KorName    string `json:"kor_name"`
	EngName    string `json:"eng_name"`
	Category   string `json:"category"`
	Deprecated bool   `json:"deprecated"`
	ReplacedBy string `json:"replaced_by"`
}

func runCodesImport(cmd *cobra.Command, args []string) error {
	if codeStore == nil {
		return errors.New("disease code store not configured")
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read codebook: %w", err)
	}

	var entries []codebookEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse codebook: %w", err)
	}

	ctx := context.Background()
	imported := 0
	skipped := 0
	for _, e := range entries {
		code := strings.ToUpper(strings.TrimSpace(e.Code))
		if code == "" {
			skipped++
			continue
		}
		err := codeStore.Put(ctx, domain.DiseaseCode{
			Code:       code,
			KorName:    e.KorName,
			EngName:    e.EngName,
			Category:   e.Category,
			Deprecated: e.Deprecated,
			ReplacedBy: strings.ToUpper(strings.TrimSpace(e.ReplacedBy)),
		})
		if err != nil {
			return fmt.Errorf("store code %s: %w", code, err)
		}
		imported++
	}
	if skipped > 0 {
		logger.Warn("Skipped %d codebook entries without a code", skipped)
	}

	total, err := codeStore.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index: %w", err)
	}

	cmd.Printf("Imported %d code(s); index now holds %d\n", imported, total)
	return nil
}

func runCodesLookup(cmd *cobra.Command, args []string) error {
	if codeStore == nil {
		return errors.New("disease code store not configured")
	}

	code := strings.ToUpper(strings.TrimSpace(args[0]))
	entry, err := codeStore.Get(context.Background(), code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("code %s not in the index", code)
		}
		return fmt.Errorf("look up code: %w", err)
	}

	cmd.Printf("%s  %s", entry.Code, entry.KorName)
	if entry.EngName != "" {
		cmd.Printf("  (%s)", entry.EngName)
	}
	cmd.Println()
	if entry.Category != "" {
		cmd.Printf("  category: %s\n", entry.Category)
	}
	if entry.Code != code {
		cmd.Printf("  resolved from deprecated %s\n", code)
	}
	return nil
}
