package llm

import (
	"context"
	"errors"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pukaarhealth/pukaar/pkg/observability"
)

const openaiMaxRetries = 3

// OpenAIClient implements Client using the OpenAI chat completions API.
// It is the alternative provider for deployments without Gemini access.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// OpenAIConfig holds OpenAI client configuration.
type OpenAIConfig struct {
	// APIKey is required.
	APIKey string
	// BaseURL overrides the API endpoint (useful for tests and proxies).
	BaseURL string
	// Model defaults to gpt-4o-mini.
	Model string
	// Temperature defaults to 0.2.
	Temperature float32
	// MaxTokens caps the response length (default 1024).
	MaxTokens int
}

// NewOpenAIClient creates an OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, NewError("openai", ErrorCodeAuthentication, "API key not set", nil)
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Complete sends a single-turn prompt with the same retry policy as the
// Gemini client.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt)
	observability.RecordLLMCall(c.Name(), callStatus(err), time.Since(start))
	return text, err
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = c.wrapError(err)
			var e *Error
			if errors.As(lastErr, &e) && !e.IsRetryable {
				return "", lastErr
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return "", NewError("openai", ErrorCodeInvalidResponse, "empty completion", nil)
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", lastErr
}

func (c *OpenAIClient) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ErrorCodeUnknown
		switch {
		case apiErr.HTTPStatusCode == 401 || apiErr.HTTPStatusCode == 403:
			code = ErrorCodeAuthentication
		case apiErr.HTTPStatusCode == 429:
			code = ErrorCodeRateLimit
		case apiErr.HTTPStatusCode >= 500:
			code = ErrorCodeServerError
		}
		e := NewError("openai", code, apiErr.Message, err)
		e.StatusCode = apiErr.HTTPStatusCode
		return e
	}
	return NewError("openai", ErrorCodeTimeout, err.Error(), err)
}
