package file

import (
	"time"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
)

// AnalysisConfigFrom builds an analysis configuration from the config
// store, starting from the balanced-mode defaults. Unknown or invalid
// values are warned about and fall back to the default.
func AnalysisConfigFrom(store driven.ConfigStore) domain.AnalysisConfig {
	cfg := domain.DefaultAnalysisConfig()

	if mode := store.GetString("analysis.mode"); mode != "" {
		switch m := domain.AnalysisMode(mode); m {
		case domain.ModeFast, domain.ModeBalanced, domain.ModeThorough:
			cfg.Mode = m
		default:
			logger.Warn("Unknown analysis.mode %q, using %q", mode, cfg.Mode)
		}
	}

	if _, ok := store.Get("analysis.intelligence_enabled"); ok {
		cfg.IntelligenceEnabled = store.GetBool("analysis.intelligence_enabled")
	}
	if _, ok := store.Get("analysis.fallback_to_legacy"); ok {
		cfg.FallbackToLegacy = store.GetBool("analysis.fallback_to_legacy")
	}
	cfg.HybridMode = store.GetBool("analysis.hybrid_mode")

	if force := store.GetString("analysis.force_strategy"); force != "" {
		if s := domain.Strategy(force); s.Valid() {
			cfg.ForceStrategy = s
		} else {
			logger.Warn("Unknown analysis.force_strategy %q, ignoring", force)
		}
	}

	if limit := store.GetInt("analysis.cost_limit"); limit > 0 {
		cfg.CostLimit = limit
	}
	if threshold := store.GetFloat("analysis.accuracy_threshold"); threshold > 0 {
		cfg.AccuracyThreshold = threshold
	}
	if secs := store.GetInt("analysis.hybrid_timeout"); secs > 0 {
		cfg.HybridTimeout = time.Duration(secs) * time.Second
	}
	if n := store.GetInt("analysis.max_concurrency"); n > 0 {
		cfg.MaxConcurrency = n
	}

	if _, ok := store.Get("filter.include_before_reference"); ok {
		cfg.Filter.IncludeBeforeReference = store.GetBool("filter.include_before_reference")
	}
	cfg.Filter.MinConfidence = store.GetFloat("filter.min_confidence")
	cfg.Filter.StartDate = parseDateKey(store, "filter.start_date")
	cfg.Filter.EndDate = parseDateKey(store, "filter.end_date")
	cfg.Filter.IncludeTags = store.GetStringSlice("filter.include_tags")
	cfg.Filter.ExcludeTags = store.GetStringSlice("filter.exclude_tags")

	return cfg
}

// parseDateKey reads an ISO date config value; a zero time means the
// key is absent or malformed.
func parseDateKey(store driven.ConfigStore, key string) time.Time {
	raw := store.GetString(key)
	if raw == "" {
		return time.Time{}
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		logger.Warn("Invalid date in %s: %q (want YYYY-MM-DD)", key, raw)
		return time.Time{}
	}
	return d
}
