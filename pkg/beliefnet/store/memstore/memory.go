package memstore

import (
	"context"
	"sync"

	"github.com/cognicore/beliefnet/pkg/beliefnet/store"
)

// Store keeps the question history in memory. It satisfies store.Store
// for callers that do not need the history to survive the process.
type Store struct {
	mu      sync.RWMutex
	facts   []store.Fact
	results []store.Result
}

// New creates an empty Store.
func New() *Store {
	return &Store{}
}

// Close is a no-op; there is nothing to release.
func (s *Store) Close() error { return nil }

// AppendFact records an evidence assignment.
func (s *Store) AppendFact(ctx context.Context, f store.Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.ID = int64(len(s.facts) + 1)
	s.facts = append(s.facts, f)
	return nil
}

// Facts returns all recorded evidence assignments in insertion order.
func (s *Store) Facts(ctx context.Context) ([]store.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Fact, len(s.facts))
	copy(out, s.facts)
	return out, nil
}

// AppendResult records a posterior probability.
func (s *Store) AppendResult(ctx context.Context, r store.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = int64(len(s.results) + 1)
	s.results = append(s.results, r)
	return nil
}

// Results returns all recorded posteriors in insertion order.
func (s *Store) Results(ctx context.Context) ([]store.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Result, len(s.results))
	copy(out, s.results)
	return out, nil
}
