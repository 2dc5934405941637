package inference

import (
	"github.com/cognicore/beliefnet/pkg/beliefnet/evidence"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

// eliminationOrder decides the order in which the hidden variables are
// summed out: greedily the variable whose elimination produces the
// smallest factor, ties broken by registration order. The choice only
// affects cost; the posterior is the same for any order.
func eliminationOrder(snap model.Snapshot, query []string, ev evidence.Set) []string {
	// Factor scopes as they stand once the evidence is restricted away
	scopes := make([]map[string]struct{}, 0, len(snap.Variables()))
	for _, cpd := range snap.Conditionals() {
		scope := make(map[string]struct{})
		for _, v := range cpd.Scope() {
			if ev.Has(v.Name) {
				continue
			}
			scope[v.Name] = struct{}{}
		}
		scopes = append(scopes, scope)
	}

	queried := make(map[string]struct{}, len(query))
	for _, name := range query {
		queried[name] = struct{}{}
	}
	hidden := make(map[string]struct{})
	for _, v := range snap.Variables() {
		if _, ok := queried[v.Name]; ok {
			continue
		}
		if ev.Has(v.Name) {
			continue
		}
		hidden[v.Name] = struct{}{}
	}

	order := make([]string, 0, len(hidden))
	for len(hidden) > 0 {
		best, bestSize := "", -1
		for _, v := range snap.Variables() {
			if _, ok := hidden[v.Name]; !ok {
				continue
			}
			if size := eliminationSize(snap, scopes, v.Name); bestSize < 0 || size < bestSize {
				best, bestSize = v.Name, size
			}
		}

		order = append(order, best)
		delete(hidden, best)

		// Replace the scopes mentioning best with their merged scope
		merged := make(map[string]struct{})
		next := scopes[:0]
		for _, scope := range scopes {
			if _, ok := scope[best]; !ok {
				next = append(next, scope)
				continue
			}
			for name := range scope {
				if name != best {
					merged[name] = struct{}{}
				}
			}
		}
		scopes = append(next, merged)
	}
	return order
}

// eliminationSize is the cell count of the factor produced by summing
// name out of the product of every scope that mentions it.
func eliminationSize(snap model.Snapshot, scopes []map[string]struct{}, name string) int {
	union := make(map[string]struct{})
	for _, scope := range scopes {
		if _, ok := scope[name]; !ok {
			continue
		}
		for n := range scope {
			union[n] = struct{}{}
		}
	}

	size := 1
	for n := range union {
		if n == name {
			continue
		}
		if v, ok := snap.Variable(n); ok {
			size *= v.Card
		}
	}
	return size
}
