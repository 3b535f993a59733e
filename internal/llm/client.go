// Package llm wraps the language model providers behind a single Client
// interface. Providers return typed errors so callers can distinguish
// retryable transport failures from malformed model output.
package llm

import (
	"context"
	"strings"

	"golang.org/x/time/rate"
)

// Client is a minimal completion interface. Implementations must be safe
// for concurrent use.
type Client interface {
	// Complete sends a prompt and returns the model's text response.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name returns the provider name (e.g., "gemini", "openai").
	Name() string
}

// Common error codes
const (
	ErrorCodeTimeout         = "timeout"
	ErrorCodeRateLimit       = "rate_limit_exceeded"
	ErrorCodeAuthentication  = "authentication_error"
	ErrorCodeInvalidResponse = "invalid_response"
	ErrorCodeServerError     = "server_error"
	ErrorCodeUnknown         = "unknown_error"
)

// Error is a provider-specific failure.
type Error struct {
	Provider      string `json:"provider"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	StatusCode    int    `json:"status_code,omitempty"`
	IsRetryable   bool   `json:"is_retryable"`
	OriginalError error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Provider + " error: " + e.Message
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.OriginalError
}

// NewError creates a provider error, deriving retryability from the code.
func NewError(provider, code, message string, original error) *Error {
	return &Error{
		Provider:      provider,
		Code:          code,
		Message:       message,
		OriginalError: original,
		IsRetryable:   isRetryableCode(code),
	}
}

func isRetryableCode(code string) bool {
	switch code {
	case ErrorCodeRateLimit, ErrorCodeServerError, ErrorCodeTimeout:
		return true
	default:
		return false
	}
}

// ExtractJSON pulls the first JSON object out of a model response. Models
// routinely wrap JSON in prose or markdown fences; everything before the
// first '{' and after the last '}' is dropped.
func ExtractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// callStatus is the metrics label for a completion outcome.
func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Limited wraps a Client with a token-bucket rate limit.
type Limited struct {
	inner   Client
	limiter *rate.Limiter
}

// NewLimited creates a rate-limited client allowing rps requests per second
// with the given burst.
func NewLimited(inner Client, rps float64, burst int) *Limited {
	return &Limited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Complete waits for limiter capacity, then delegates.
func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", NewError(l.inner.Name(), ErrorCodeTimeout, err.Error(), err)
	}
	return l.inner.Complete(ctx, prompt)
}

// Name returns the wrapped provider's name.
func (l *Limited) Name() string {
	return l.inner.Name()
}
