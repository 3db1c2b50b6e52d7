package llm

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrNotConfigured = errors.New("gemini API key is not configured")

var ErrEmptyResponse = errors.New("model returned no candidates")

// APIError is a non-2xx answer from the Gemini API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gemini API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("gemini API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable reports rate limits and server errors.
func (e *APIError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func isRetryableError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
