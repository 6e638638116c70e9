// Package openai provides an LLM service adapter for the OpenAI chat
// completions API and compatible endpoints (Azure OpenAI, local
// inference servers).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second

	// DefaultRequestsPerSecond is the client-side rate limit applied to
	// chat calls so parallel chunk delegation cannot trip provider
	// limits.
	DefaultRequestsPerSecond = 2

	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// RequestsPerSecond is the client-side rate limit (default: 2).
	RequestsPerSecond float64
}

// LLMService provides LLM operations using the OpenAI API.
type LLMService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// chatCompletionRequest is the OpenAI /chat/completions request format.
type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
}

// chatCompletionMsg is the OpenAI chat message format.
type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the OpenAI /chat/completions response format.
type chatCompletionResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// New creates a new OpenAI LLM service.
func New(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
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

// Chat conducts a conversation with bounded retries. Rate limits,
// server errors and transport errors are retried with exponential
// backoff; other failures surface immediately.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (*driven.ChatResult, error) {
	chatMessages := make([]chatCompletionMsg, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatCompletionMsg{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	reqBody := chatCompletionRequest{
		Model:    s.model,
		Messages: chatMessages,
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
			logger.Warn("OpenAI call failed, retrying in %s (attempt %d/%d): %v",
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

// doChat performs one chat completion request.
func (s *LLMService) doChat(ctx context.Context, jsonBody []byte) (*driven.ChatResult, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "openai", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "openai", StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ExternalServiceError{
			Service:    "openai",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", string(body)),
		}
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, &domain.ExternalServiceError{
			Service:    "openai",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s: %s", chatResp.Error.Type, chatResp.Error.Message),
		}
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned")
	}

	model := chatResp.Model
	if model == "" {
		model = s.model
	}
	return &driven.ChatResult{
		Content: chatResp.Choices[0].Message.Content,
		Model:   model,
		Usage: driven.TokenUsage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /models endpoint.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("openai: failed to create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("openai: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("openai: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
