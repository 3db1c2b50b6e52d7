package assistant

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mrlokans/library/internal/llm"
)

const (
	DefaultConversationTTL  = 30 * time.Minute
	DefaultMaxConversations = 1000

	// maxHistory bounds the contents replayed to the model per conversation.
	maxHistory = 40
)

// ConversationStore keeps tool-loop histories keyed by conversation id.
// Entries expire after ttl and the least recently used are evicted past size.
type ConversationStore struct {
	cache *expirable.LRU[string, []llm.Content]
}

func NewConversationStore(size int, ttl time.Duration) *ConversationStore {
	if size <= 0 {
		size = DefaultMaxConversations
	}
	if ttl <= 0 {
		ttl = DefaultConversationTTL
	}
	return &ConversationStore{cache: expirable.NewLRU[string, []llm.Content](size, nil, ttl)}
}

// NewConversationID returns a random id for clients that did not send one.
func NewConversationID() string {
	return uuid.NewString()
}

// Get returns a copy of the history, or nil for an unknown id.
func (s *ConversationStore) Get(id string) []llm.Content {
	history, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	out := make([]llm.Content, len(history))
	copy(out, history)
	return out
}

func (s *ConversationStore) Save(id string, history []llm.Content) {
	s.cache.Add(id, trimHistory(history))
}

func (s *ConversationStore) Delete(id string) {
	s.cache.Remove(id)
}

func (s *ConversationStore) Len() int {
	return s.cache.Len()
}

// trimHistory drops the oldest turns so that at most maxHistory contents
// remain and the history still starts with a user text turn.
func trimHistory(history []llm.Content) []llm.Content {
	if len(history) <= maxHistory {
		return history
	}
	start := len(history) - maxHistory
	for start < len(history) && !isUserText(history[start]) {
		start++
	}
	return append([]llm.Content(nil), history[start:]...)
}

func isUserText(c llm.Content) bool {
	if c.Role != llm.RoleUser || len(c.Parts) == 0 {
		return false
	}
	return c.Parts[0].FunctionResponse == nil
}
