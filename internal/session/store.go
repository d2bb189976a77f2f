package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/xxxsen/jainqa/internal/model"
)

// History is the ordered conversation record of one session. It lives
// in memory only and is lost on restart.
type History struct {
	mu    sync.Mutex
	turns []model.Turn
}

func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, model.Turn{Question: question, Answer: answer})
}

func (h *History) Turns() []model.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]model.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Store maps session ids to histories. Capacity and TTL are bounded so
// abandoned sessions are evicted instead of growing without limit.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *History]
}

func NewStore(maxSessions int, ttl time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = 4096
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{
		cache: expirable.NewLRU[string, *History](maxSessions, nil, ttl),
	}
}

// GetOrCreate returns the history for the session, creating an empty
// one on first contact.
func (s *Store) GetOrCreate(sessionID string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	if history, ok := s.cache.Get(sessionID); ok {
		return history
	}
	history := &History{}
	s.cache.Add(sessionID, history)
	return history
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
