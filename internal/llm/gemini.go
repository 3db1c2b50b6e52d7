package llm

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"

	"github.com/mrlokans/library/internal/config"
)

const (
	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

type GeminiClient struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	retryDelay time.Duration
}

func NewGeminiClient(cfg config.Assistant) *GeminiClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultGeminiBaseURL
	}
	return &GeminiClient{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.GeminiAPIKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		retryDelay: initialRetryDelay,
	}
}

func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) endpoint() string {
	return c.baseURL + "/models/" + url.PathEscape(c.model) + ":generateContent"
}

// Generate calls generateContent, retrying rate limits and 5xx responses
// with exponential backoff.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode gemini request")
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		resp, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			return nil, err
		}
	}
	return nil, errors.Wrap(lastErr, "max retries exceeded")
}

func (c *GeminiClient) do(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "gemini request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw)}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, "decode gemini response")
	}
	if len(out.Candidates) == 0 {
		return nil, ErrEmptyResponse
	}
	return &out, nil
}

// apiErrorMessage extracts error.message from a Gemini error body.
func apiErrorMessage(raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func (c *GeminiClient) backoff(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 1; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}
