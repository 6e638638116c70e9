// chronicle reconstructs medical event timelines from scanned
// insurance document text.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	configfile "github.com/vnexus-labs/chronicle/internal/adapters/driven/config/file"
	"github.com/vnexus-labs/chronicle/internal/adapters/driven/llm/anthropic"
	"github.com/vnexus-labs/chronicle/internal/adapters/driven/llm/openai"
	sourcefile "github.com/vnexus-labs/chronicle/internal/adapters/driven/source/file"
	"github.com/vnexus-labs/chronicle/internal/adapters/driven/storage/memory"
	"github.com/vnexus-labs/chronicle/internal/adapters/driven/storage/sqlite"
	"github.com/vnexus-labs/chronicle/internal/adapters/driving/cli"
	"github.com/vnexus-labs/chronicle/internal/chunker"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/core/services"
	"github.com/vnexus-labs/chronicle/internal/extractor"
	"github.com/vnexus-labs/chronicle/internal/logger"
	"github.com/vnexus-labs/chronicle/internal/tagger"
)

// version is injected at build time:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best-effort .env loading for local development.
	_ = godotenv.Load()

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("init config store: %w", err)
	}

	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("init prompt store: %w", err)
	}

	var (
		history driven.PerformanceHistory
		codes   driven.DiseaseCodeStore
	)
	store, err := sqlite.NewStore("")
	if err != nil {
		// Degrade to in-process stores: analysis still works, but
		// performance history does not survive the process.
		logger.Warn("SQLite storage unavailable (%v), using in-memory stores", err)
		history = memory.NewPerformanceHistory(driven.DefaultHistoryCapacity)
		codes = memory.NewDiseaseCodeStore()
	} else {
		defer store.Close()
		history = store.PerformanceHistory(driven.DefaultHistoryCapacity)
		codes = store.DiseaseCodeStore()
	}

	llm := buildLLM(configStore)

	analysis := services.NewAnalysisService(
		chunker.New(),
		extractor.New(extractor.WithPromptStore(promptStore)),
		tagger.New(codes),
		services.WithLLM(llm),
		services.WithHistory(history),
	)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Analysis:   analysis,
		Source:     sourcefile.NewDocumentSource(),
		History:    history,
		Config:     configStore,
		Codes:      codes,
		BaseConfig: configfile.AnalysisConfigFrom(configStore),
	})

	return cli.Execute()
}

// buildLLM constructs the configured LLM adapter. A missing API key is
// not an error: the pipeline degrades to the legacy strategy.
func buildLLM(cfg driven.ConfigStore) driven.LLMService {
	apiKey := os.Getenv("CHRONICLE_LLM_API_KEY")
	if apiKey == "" {
		logger.Debug("CHRONICLE_LLM_API_KEY not set, LLM delegation disabled")
		return nil
	}

	provider := cfg.GetString("llm.provider")
	model := cfg.GetString("llm.model")
	baseURL := cfg.GetString("llm.base_url")

	var timeout time.Duration
	if secs := cfg.GetInt("llm.timeout"); secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}

	switch provider {
	case "anthropic":
		svc, err := anthropic.New(anthropic.Config{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: timeout,
		})
		if err != nil {
			logger.Warn("Anthropic adapter disabled: %v", err)
			return nil
		}
		return svc
	case "", "openai":
		svc, err := openai.New(openai.Config{
			APIKey:  apiKey,
			BaseURL: baseURL,
			Model:   model,
			Timeout: timeout,
		})
		if err != nil {
			logger.Warn("OpenAI adapter disabled: %v", err)
			return nil
		}
		return svc
	default:
		logger.Warn("Unknown llm.provider %q, LLM delegation disabled", provider)
		return nil
	}
}
