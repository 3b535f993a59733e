package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/pukaarhealth/pukaar/pkg/observability"
)

const (
	geminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel      = "gemini-1.5-flash"
	geminiMaxRetries = 3
)

// GeminiClient implements Client against the Google Gemini REST API.
type GeminiClient struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	client      *http.Client
}

// GeminiConfig holds Gemini client configuration.
type GeminiConfig struct {
	// APIKey is required.
	APIKey string
	// BaseURL overrides the API endpoint (useful for tests).
	BaseURL string
	// Model defaults to gemini-1.5-flash.
	Model string
	// Temperature defaults to 0.2; screening answers should be stable.
	Temperature float64
	// MaxTokens caps the response length (default 1024).
	MaxTokens int
}

// NewGeminiClient creates a Gemini client.
func NewGeminiClient(cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, NewError("gemini", ErrorCodeAuthentication, "API key not set", nil)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = geminiModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &GeminiClient{
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete sends a single-turn prompt. Transient failures (transport errors,
// 429, 5xx) are retried with exponential backoff; other failures return
// immediately.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := c.complete(ctx, prompt)
	observability.RecordLLMCall(c.Name(), callStatus(err), time.Since(start))
	return text, err
}

func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt < geminiMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = NewError("gemini", ErrorCodeTimeout, err.Error(), err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = c.errorFromResponse(resp)
			_ = resp.Body.Close()
			continue
		}

		if resp.StatusCode != http.StatusOK {
			err := c.errorFromResponse(resp)
			_ = resp.Body.Close()
			return "", err
		}

		var gResp geminiResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&gResp)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return "", NewError("gemini", ErrorCodeInvalidResponse, decodeErr.Error(), decodeErr)
		}

		return parseGeminiResponse(&gResp)
	}

	return "", lastErr
}

func (c *GeminiClient) errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	code := ErrorCodeUnknown
	switch {
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		code = ErrorCodeAuthentication
	case resp.StatusCode == 429:
		code = ErrorCodeRateLimit
	case resp.StatusCode >= 500:
		code = ErrorCodeServerError
	}

	message := string(body)
	var gResp geminiResponse
	if err := json.Unmarshal(body, &gResp); err == nil && gResp.Error != nil {
		message = gResp.Error.Message
	}

	e := NewError("gemini", code, message, nil)
	e.StatusCode = resp.StatusCode
	return e
}

func parseGeminiResponse(resp *geminiResponse) (string, error) {
	if resp.Error != nil {
		return "", NewError("gemini", ErrorCodeUnknown, resp.Error.Message, nil)
	}
	if len(resp.Candidates) == 0 {
		return "", NewError("gemini", ErrorCodeInvalidResponse, "no candidates in response", nil)
	}

	var content string
	for _, part := range resp.Candidates[0].Content.Parts {
		content += part.Text
	}
	if content == "" {
		return "", NewError("gemini", ErrorCodeInvalidResponse, "empty candidate content", nil)
	}
	return content, nil
}
