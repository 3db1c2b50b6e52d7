package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/config"
)

func newTestClient(serverURL string) *GeminiClient {
	c := NewGeminiClient(config.Assistant{GeminiAPIKey: "test-key", Model: "gemini-test", BaseURL: serverURL})
	c.retryDelay = time.Millisecond
	return c
}

func TestGenerate_SendsRequestAndParsesFunctionCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		raw, _ := io.ReadAll(r.Body)
		var req Request
		if assert.NoError(t, json.Unmarshal(raw, &req)) && assert.Len(t, req.Contents, 1) && assert.Len(t, req.Tools, 1) {
			assert.Equal(t, "how many overdue?", req.Contents[0].Parts[0].Text)
			assert.Equal(t, "get_overdue_books_count", req.Tools[0].FunctionDeclarations[0].Name)
		}

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"functionCall":{"name":"get_overdue_books_count","args":{}}}]}}]}`))
	}))
	defer server.Close()

	resp, err := newTestClient(server.URL).Generate(context.Background(), Request{
		Contents: []Content{UserText("how many overdue?")},
		Tools:    []Tool{{FunctionDeclarations: []FunctionDeclaration{{Name: "get_overdue_books_count", Description: "count"}}}},
	})
	require.NoError(t, err)

	calls := resp.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "get_overdue_books_count", calls[0].Name)
	assert.Empty(t, resp.Text())
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" hello "}]}}]}`))
	}))
	defer server.Close()

	text, err := GenerateText(context.Background(), newTestClient(server.URL), "hi")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGenerate_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Generate(context.Background(), Request{Contents: []Content{UserText("x")}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "API key not valid", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestGenerate_NotConfigured(t *testing.T) {
	c := NewGeminiClient(config.Assistant{})
	assert.False(t, c.Configured())

	_, err := c.Generate(context.Background(), Request{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestBackoff(t *testing.T) {
	c := &GeminiClient{retryDelay: time.Second}
	assert.Equal(t, time.Second, c.backoff(1))
	assert.Equal(t, 2*time.Second, c.backoff(2))
	assert.Equal(t, maxRetryDelay, c.backoff(10))
}
