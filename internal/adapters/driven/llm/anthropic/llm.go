// Package anthropic provides an LLM service adapter using the
// Anthropic messages API.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/vnexus-labs/chronicle/internal/core/domain"
	"github.com/vnexus-labs/chronicle/internal/core/ports/driven"
	"github.com/vnexus-labs/chronicle/internal/logger"
	"github.com/vnexus-labs/chronicle/internal/metrics"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerSecond is the client-side rate limit.
	DefaultRequestsPerSecond = 2

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"

	// defaultMaxTokens applies when the caller does not set a limit;
	// the messages API requires max_tokens.
	defaultMaxTokens = 4096

	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the LLM model to use (default: claude-3-5-sonnet-latest).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond is the client-side rate limit (default: 2).
	RequestsPerSecond float64
}

// LLMService provides LLM operations using the Anthropic API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a new Anthropic LLM service.
func New(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}, nil
}

// Chat conducts a conversation with bounded retries. The Anthropic API
// takes system prompts out of band, so system-role messages are lifted
// into the request's system field.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	var system []string
	apiMessages := make([]messagesMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		apiMessages = append(apiMessages, messagesMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  apiMessages,
		MaxTokens: defaultMaxTokens,
		System:    strings.Join(system, "\n\n"),
	}
	if opts.MaxTokens > 0 {
		reqBody.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature > 0 {
		reqBody.Temperature = opts.Temperature
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := initialBackoff << (attempt - 1)
			logger.Warn("Anthropic call failed, retrying in %s (attempt %d/%d): %v",
				backoff, attempt, maxRetries, lastErr)
			metrics.RecordLLMRetry()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := s.doChat(ctx, jsonBody)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var svcErr *domain.ExternalServiceError
		if !errors.As(err, &svcErr) || !svcErr.Retryable() {
			return nil, err
		}
	}
	return nil, lastErr
}

// doChat performs one messages API request.
func (s *LLMService) doChat(ctx context.Context, jsonBody []byte) (*driven.ChatResult, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "anthropic", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "anthropic", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ExternalServiceError{
			Service:    "anthropic",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if msgResp.Error != nil {
		return nil, &domain.ExternalServiceError{
			Service:    "anthropic",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", msgResp.Error.Type, msgResp.Error.Message),
		}
	}

	var content strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, fmt.Errorf("anthropic: no text content returned")
	}

	model := msgResp.Model
	if model == "" {
		model = s.model
	}
	return &driven.ChatResult{
		Content: content.String(),
		Model:   model,
		Usage: driven.TokenUsage{
			PromptTokens:     msgResp.Usage.InputTokens,
			CompletionTokens: msgResp.Usage.OutputTokens,
			TotalTokens:      msgResp.Usage.InputTokens + msgResp.Usage.OutputTokens,
		},
	}, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key with a minimal one-token request.
func (s *LLMService) Ping(ctx context.Context) error {
	reqBody := messagesRequest{
		Model:     s.model,
		Messages:  []messagesMessage{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("anthropic: marshal ping request: %w", err)
	}

	if _, err := s.doChat(ctx, jsonBody); err != nil {
		return fmt.Errorf("anthropic: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
