package calc

import (
	"sync"
	"time"

	"fintrack/internal/cache"
)

// PressResult is the outcome of a key press in a keypad session.
type PressResult struct {
	Display string
	// Amount is set when the press was a successful "=".
	Amount *float64
}

type session struct {
	mu   sync.Mutex
	calc *Calculator
	last *float64
}

// Sessions keeps one Calculator per client session. Idle sessions expire
// after the TTL and the least recently used ones are evicted beyond
// maxSize.
type Sessions struct {
	mu    sync.Mutex
	cache *cache.LRUCache[*session]
}

func NewSessions(maxSize int, ttl time.Duration) *Sessions {
	return &Sessions{cache: cache.NewLRUCache[*session](maxSize, ttl)}
}

// Press forwards key to the calculator of session id, creating it on first
// use.
func (s *Sessions) Press(id, key string) (PressResult, error) {
	sess := s.get(id)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.last = nil
	display, err := sess.calc.Press(key)
	return PressResult{Display: display, Amount: sess.last}, err
}

// Drop forgets a session.
func (s *Sessions) Drop(id string) {
	s.cache.Delete(id)
}

// Cleaner exposes the backing cache for periodic expiry.
func (s *Sessions) Cleaner() cache.Cleaner {
	return s.cache
}

func (s *Sessions) get(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.cache.Get(id); ok {
		return sess
	}
	sess := &session{}
	sess.calc = NewCalculator(func(v float64) { sess.last = &v })
	s.cache.Set(id, sess)
	return sess
}
