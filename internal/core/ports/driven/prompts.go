package driven

// Prompt names used by the pipeline.
const (
	// PromptExtraction is the system prompt for ambiguous-chunk event
	// extraction.
	PromptExtraction = "extraction"
)

// PromptStore provides LLM prompt templates. Implementations load
// user-editable files with embedded defaults as fallback.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)
}
