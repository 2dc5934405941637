package store

import (
	"context"
)

// Store is the main interface for persisting inference activity
type Store interface {
	Close() error

	// Facts (observed evidence)
	AppendFact(ctx context.Context, f Fact) error
	Facts(ctx context.Context) ([]Fact, error)

	// Results (computed posteriors)
	AppendResult(ctx context.Context, r Result) error
	Results(ctx context.Context) ([]Result, error)
}

// Fact represents a recorded evidence assignment
type Fact struct {
	ID    int64
	Key   string
	Value int
}

// Result represents a recorded posterior probability
type Result struct {
	ID        int64
	Posterior float64
}
