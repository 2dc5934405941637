package inference

import (
	"fmt"

	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

// Engine answers exact posterior queries over a validated network by
// variable elimination. It holds no state: every query snapshots the
// network, so concurrent queries and concurrent model updates never
// interfere.
type Engine struct{}

// New creates an inference engine.
func New() Engine {
	return Engine{}
}

// Query computes P(query | evidence) exactly. The posterior factor in
// the result is normalized and aligned to the query order given here.
//
// The network must be validated. Query names must be registered and
// free of evidence; evidence names must be registered and their states
// inside the variable's domain.
func (Engine) Query(net *model.Network, query []string, ev evidence.Set) (Result, error) {
	snap, err := net.Snapshot()
	if err != nil {
		return Result{}, err
	}

	target, err := normalizeQuery(snap, query)
	if err != nil {
		return Result{}, err
	}
	if err := checkEvidence(snap, target, ev); err != nil {
		return Result{}, err
	}

	order := eliminationOrder(snap, target, ev)
	posterior, err := eliminate(snap, target, ev, order)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ID:          newID(),
		Query:       target,
		Posterior:   posterior,
		Evidence:    ev,
		Elimination: order,
	}, nil
}

// eliminate restricts every distribution by the evidence, sums the
// ordered variables out one by one, multiplies the survivors and
// normalizes. The result is aligned to the query order.
func eliminate(snap model.Snapshot, query []string, ev evidence.Set, order []string) (factor.Factor, error) {
	working := make([]factor.Factor, 0, len(snap.Variables()))
	for _, cpd := range snap.Conditionals() {
		f := cpd
		for _, name := range ev.Names() {
			if !f.HasVariable(name) {
				continue
			}
			state, _ := ev.Get(name)
			restricted, err := f.Restrict(name, state)
			if err != nil {
				return factor.Factor{}, err
			}
			f = restricted
		}
		working = append(working, f)
	}

	for _, name := range order {
		var touched, rest []factor.Factor
		for _, f := range working {
			if f.HasVariable(name) {
				touched = append(touched, f)
			} else {
				rest = append(rest, f)
			}
		}
		if len(touched) == 0 {
			continue
		}

		product := touched[0]
		for _, f := range touched[1:] {
			next, err := product.Product(f)
			if err != nil {
				return factor.Factor{}, err
			}
			product = next
		}
		summed, err := product.SumOut(name)
		if err != nil {
			return factor.Factor{}, err
		}
		working = append(rest, summed)
	}

	joint := working[0]
	for _, f := range working[1:] {
		next, err := joint.Product(f)
		if err != nil {
			return factor.Factor{}, err
		}
		joint = next
	}

	posterior, err := joint.Normalize()
	if err != nil {
		return factor.Factor{}, err
	}
	return posterior.Align(query)
}

// normalizeQuery deduplicates the query names preserving first
// occurrence and checks each one is registered.
func normalizeQuery(snap model.Snapshot, query []string) ([]string, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query: %w", internalerr.ErrEmptyQuery)
	}
	seen := make(map[string]struct{}, len(query))
	out := make([]string, 0, len(query))
	for _, name := range query {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if snap.Position(name) < 0 {
			return nil, fmt.Errorf("query variable %q: %w", name, internalerr.ErrUnknownVariable)
		}
		out = append(out, name)
	}
	return out, nil
}

// checkEvidence verifies every observation names a registered variable,
// stays inside its domain and does not collide with the query.
func checkEvidence(snap model.Snapshot, query []string, ev evidence.Set) error {
	queried := make(map[string]struct{}, len(query))
	for _, name := range query {
		queried[name] = struct{}{}
	}
	for _, name := range ev.Names() {
		v, ok := snap.Variable(name)
		if !ok {
			return fmt.Errorf("evidence variable %q: %w", name, internalerr.ErrUnknownVariable)
		}
		state, _ := ev.Get(name)
		if state < 0 || state >= v.Card {
			return fmt.Errorf("evidence %s=%d with cardinality %d: %w",
				name, state, v.Card, internalerr.ErrInvalidEvidence)
		}
		if _, ok := queried[name]; ok {
			return fmt.Errorf("variable %q is both queried and observed: %w",
				name, internalerr.ErrInvalidEvidence)
		}
	}
	return nil
}
