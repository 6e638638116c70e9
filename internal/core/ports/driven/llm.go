package driven

import "context"

// LLMService provides language model operations for ambiguous-chunk
// event extraction and report prose. This is an optional service - when
// nil, extraction runs on local heuristics only.
//
// Implementations may include:
//   - OpenAI-compatible endpoints (GPT, local inference servers)
//   - Anthropic (Claude)
type LLMService interface {
	// Chat conducts a conversation and returns the reply together with
	// token accounting, which feeds the document cost budget.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (*ChatResult, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight
	// request. Used at startup before committing to a strategy.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// ChatResult is a completed chat turn.
type ChatResult struct {
	// Content is the model reply.
	Content string

	// Model is the model that produced the reply.
	Model string

	// Usage is the provider-reported token accounting.
	Usage TokenUsage
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
