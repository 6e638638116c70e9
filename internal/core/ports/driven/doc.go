// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentSource: Supplies raw text or structured OCR blocks
//   - PerformanceHistory: Rolling per-strategy performance samples
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - LLMService: Language model delegation. Without it, the selector
//     only ever chooses the legacy strategy.
//   - DiseaseCodeStore: Code index lookups. Without it, code detection
//     falls back to pattern-and-range heuristics only.
//   - PromptStore: User-editable prompt templates. Without it, embedded
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
