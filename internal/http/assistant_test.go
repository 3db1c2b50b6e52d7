package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/assistant"
	"github.com/mrlokans/library/internal/errcodes"
)

type fakeAssistant struct {
	answer   string
	chunks   []assistant.Chunk
	question string
	convID   string
}

func (f *fakeAssistant) Ask(_ context.Context, question string) (*assistant.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errcodes.BadRequest("Query cannot be empty.")
	}
	f.question = question
	return &assistant.Answer{Response: f.answer, SQL: "SELECT 1"}, nil
}

func (f *fakeAssistant) Stream(_ context.Context, conversationID, question string) (string, <-chan assistant.Chunk, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, errcodes.BadRequest("Query cannot be empty.")
	}
	f.question, f.convID = question, conversationID
	if conversationID == "" {
		conversationID = "generated"
	}
	out := make(chan assistant.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		c.ConversationID = conversationID
		out <- c
	}
	close(out)
	return conversationID, out, nil
}

// closeNotifyingRecorder lets gin's Stream run against a recorder.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newCloseNotifyingRecorder() *closeNotifyingRecorder {
	return &closeNotifyingRecorder{httptest.NewRecorder(), make(chan bool, 1)}
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func assistantRouter(a Assistant, limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{Assistant: a, RateLimiter: limiter})
}

func TestAssistantWebhook(t *testing.T) {
	fake := &fakeAssistant{answer: "There are 3 overdue books."}
	s := &testServer{router: assistantRouter(fake, nil)}

	t.Run("answers the question", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/ai-assistant/webhook", gin.H{"question": "How many overdue?"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":"There are 3 overdue books."}`, w.Body.String())
		assert.Equal(t, "How many overdue?", fake.question)
	})

	t.Run("empty question", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/ai-assistant/webhook", gin.H{"question": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Query cannot be empty.", decode[ErrorResponse](t, w).Error)
	})
}

func TestAssistantStreaming(t *testing.T) {
	fake := &fakeAssistant{chunks: []assistant.Chunk{
		{ResponseChunk: assistant.ChunkData{ToolNameCalled: "get_overdue_books_count"}},
		{ResponseChunk: assistant.ChunkData{TextChunk: "Two books are overdue.", IsFinalTextChunk: true}},
	}}
	router := assistantRouter(fake, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ai-assistant/streaming",
		strings.NewReader(`{"question":"overdue?","conversation_id":"conv-1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := newCloseNotifyingRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "conv-1", w.Header().Get("X-Conversation-ID"))
	assert.Equal(t, "conv-1", fake.convID)

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:message"))
	assert.Contains(t, body, `"tool_name_called":"get_overdue_books_count"`)
	assert.Contains(t, body, `"text_chunk":"Two books are overdue."`)
	assert.Contains(t, body, `"is_final_text_chunk":true`)
	assert.Contains(t, body, `"conversation_id":"conv-1"`)
}

func TestAssistantStreaming_EmptyQuestion(t *testing.T) {
	s := &testServer{router: assistantRouter(&fakeAssistant{}, nil)}
	w := s.do(t, http.MethodPost, "/api/v1/ai-assistant/streaming", gin.H{"question": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssistantRateLimit(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Limit: 2, WindowDuration: time.Minute})
	defer limiter.Stop()
	s := &testServer{router: assistantRouter(&fakeAssistant{answer: "ok"}, limiter)}

	for i := 0; i < 2; i++ {
		w := s.do(t, http.MethodPost, "/api/v1/ai-assistant/webhook", gin.H{"question": "q"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/v1/ai-assistant/webhook", gin.H{"question": "q"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "too_many_requests", decode[ErrorResponse](t, w).Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// The limit only covers the assistant routes.
	w = s.do(t, http.MethodGet, "/api/v1/health/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_WindowReset(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Limit: 1, WindowDuration: time.Minute})
	defer limiter.Stop()

	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	allowed, _ := limiter.Allow("1.2.3.4")
	assert.True(t, allowed)

	allowed, retryAfter := limiter.Allow("1.2.3.4")
	assert.False(t, allowed)
	assert.Equal(t, time.Minute, retryAfter)

	allowed, _ = limiter.Allow("5.6.7.8")
	assert.True(t, allowed, "keys are independent")

	now = now.Add(30 * time.Second)
	limiter.cleanup()
	allowed, retryAfter = limiter.Allow("1.2.3.4")
	assert.False(t, allowed)
	assert.Equal(t, 30*time.Second, retryAfter)

	now = now.Add(30 * time.Second)
	allowed, _ = limiter.Allow("1.2.3.4")
	assert.True(t, allowed)

	limiter.Stop()
	limiter.Stop()
}
