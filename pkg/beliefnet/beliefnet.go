package beliefnet

import (
	"context"
	"fmt"

	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/inference"
	"github.com/cognicore/beliefnet/pkg/beliefnet/justify"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
	"github.com/cognicore/beliefnet/pkg/beliefnet/store"
)

// System is the main expert-system facade
type System struct {
	net     *model.Network
	engine  inference.Engine
	store   store.Store
	journal *justify.Journal
}

// Options configures a System instance
type Options struct {
	Network *model.Network
	Store   store.Store
	Journal *justify.Journal
}

// New creates a System with the given dependencies. Store and Journal
// are optional; without them Ask answers queries but records nothing.
func New(opts Options) *System {
	return &System{
		net:     opts.Network,
		engine:  inference.New(),
		store:   opts.Store,
		journal: opts.Journal,
	}
}

// Close cleanly shuts down the System
func (s *System) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// Query runs exact inference over any set of query variables without
// recording anything.
func (s *System) Query(query []string, ev evidence.Set) (inference.Result, error) {
	return s.engine.Query(s.net, query, ev)
}

// Ask answers a single-variable question and records the interaction:
// one fact per evidence assignment, the positive-outcome posterior, and
// a justification entry.
func (s *System) Ask(ctx context.Context, target string, ev evidence.Set) (inference.Result, error) {
	res, err := s.engine.Query(s.net, []string{target}, ev)
	if err != nil {
		return inference.Result{}, err
	}

	if s.store != nil {
		for _, name := range ev.Names() {
			state, _ := ev.Get(name)
			if err := s.store.AppendFact(ctx, store.Fact{Key: name, Value: state}); err != nil {
				return inference.Result{}, fmt.Errorf("record fact %s: %w", name, err)
			}
		}
		p, err := positiveOutcome(res)
		if err != nil {
			return inference.Result{}, err
		}
		if err := s.store.AppendResult(ctx, store.Result{Posterior: p}); err != nil {
			return inference.Result{}, fmt.Errorf("record result: %w", err)
		}
	}

	if s.journal != nil {
		s.journal.Append(res.ID, justify.Describe(res))
	}

	return res, nil
}

// Update atomically replaces a batch of conditional distributions
func (s *System) Update(updates []model.Update) error {
	return s.net.ApplyUpdates(updates)
}

// positiveOutcome reads P(target=1) from a single-variable posterior.
// A single-state target reports its only state instead.
func positiveOutcome(res inference.Result) (float64, error) {
	scope := res.Posterior.Scope()
	state := 1
	if scope[0].Card < 2 {
		state = 0
	}
	return res.Posterior.Value(map[string]int{scope[0].Name: state})
}
