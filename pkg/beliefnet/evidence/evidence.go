package evidence

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

// Set is an immutable collection of observed variable states keyed by
// variable name. The zero Set carries no observations.
type Set struct {
	states map[string]int
}

// New copies the given observations into a Set.
func New(states map[string]int) Set {
	if len(states) == 0 {
		return Set{}
	}
	copied := make(map[string]int, len(states))
	for name, state := range states {
		copied[name] = state
	}
	return Set{states: copied}
}

// Parse builds a Set from "Name=state" pairs, the shape evidence takes
// on a command line. States must be integers; whether they fall inside
// a variable's domain is checked at query time against the model.
func Parse(pairs ...string) (Set, error) {
	states := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return Set{}, fmt.Errorf("evidence %q: want Name=state: %w", pair, internalerr.ErrInvalidEvidence)
		}
		state, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Set{}, fmt.Errorf("evidence %q: state is not an integer: %w", pair, internalerr.ErrInvalidEvidence)
		}
		name = strings.TrimSpace(name)
		if _, ok := states[name]; ok {
			return Set{}, fmt.Errorf("evidence %q: variable repeated: %w", pair, internalerr.ErrDuplicate)
		}
		states[name] = state
	}
	return Set{states: states}, nil
}

// Get returns the observed state for name.
func (s Set) Get(name string) (int, bool) {
	state, ok := s.states[name]
	return state, ok
}

// Has reports whether name was observed.
func (s Set) Has(name string) bool {
	_, ok := s.states[name]
	return ok
}

// Len is the number of observations.
func (s Set) Len() int {
	return len(s.states)
}

// Names returns the observed variable names in sorted order, so every
// iteration over a Set is deterministic.
func (s Set) Names() []string {
	names := make([]string, 0, len(s.states))
	for name := range s.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the observations.
func (s Set) All() map[string]int {
	copied := make(map[string]int, len(s.states))
	for name, state := range s.states {
		copied[name] = state
	}
	return copied
}

// String renders the observations as "A=0, B=1" in name order.
func (s Set) String() string {
	names := s.Names()
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%d", name, s.states[name])
	}
	return strings.Join(parts, ", ")
}
