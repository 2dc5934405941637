package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

// Network is a directed acyclic model over discrete variables. Each
// variable carries one conditional distribution over its own states
// given its parents. A Network answers queries only after Validate has
// succeeded; structural changes return it to the unvalidated state,
// while conditional replacements on a validated network revalidate it
// atomically.
//
// All methods are safe for concurrent use. Mutators take the write
// lock; readers and Snapshot share the read lock.
type Network struct {
	mu        sync.RWMutex
	order     []string // registration order, breaks ties deterministically
	vars      map[string]factor.Variable
	parents   map[string][]string
	children  map[string][]string
	cpds      map[string]factor.Factor
	validated bool
}

// Update replaces the conditional distribution of one variable. Batches
// of updates are applied atomically by ApplyUpdates.
type Update struct {
	Variable    string
	Conditional factor.Factor
}

// New creates an empty network.
func New() *Network {
	return &Network{
		vars:     make(map[string]factor.Variable),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		cpds:     make(map[string]factor.Factor),
	}
}

// AddVariable registers a named variable with the given cardinality.
func (n *Network) AddVariable(name string, card int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if name == "" {
		return fmt.Errorf("add variable: empty name: %w", internalerr.ErrInvalidInput)
	}
	if card < 1 {
		return fmt.Errorf("add variable %q: cardinality %d: %w", name, card, internalerr.ErrOutOfDomain)
	}
	if _, ok := n.vars[name]; ok {
		return fmt.Errorf("add variable %q: %w", name, internalerr.ErrDuplicateVariable)
	}

	n.vars[name] = factor.Variable{Name: name, Card: card}
	n.order = append(n.order, name)
	n.validated = false
	return nil
}

// AddDependency records a directed edge from parent to child. The edge
// is refused when either endpoint is unregistered, when it repeats an
// existing edge, or when it would close a directed cycle.
func (n *Network) AddDependency(parent, child string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.vars[parent]; !ok {
		return fmt.Errorf("add dependency: parent %q: %w", parent, internalerr.ErrUnknownVariable)
	}
	if _, ok := n.vars[child]; !ok {
		return fmt.Errorf("add dependency: child %q: %w", child, internalerr.ErrUnknownVariable)
	}
	for _, p := range n.parents[child] {
		if p == parent {
			return fmt.Errorf("add dependency %s->%s: %w", parent, child, internalerr.ErrDuplicate)
		}
	}
	if parent == child || n.reachesLocked(child, parent) {
		return fmt.Errorf("add dependency %s->%s: %w", parent, child, internalerr.ErrCycle)
	}

	n.parents[child] = append(n.parents[child], parent)
	n.children[parent] = append(n.children[parent], child)
	n.validated = false
	return nil
}

// SetConditional attaches the conditional distribution for a variable.
// The factor's scope must be exactly the variable and its declared
// parents, and for every parent assignment the values over the
// variable's states must sum to one. On a validated network the whole
// model is revalidated; if that fails the previous distribution is
// restored and the network stays valid.
func (n *Network) SetConditional(name string, f factor.Factor) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.vars[name]; !ok {
		return fmt.Errorf("set conditional: %q: %w", name, internalerr.ErrUnknownVariable)
	}
	if err := n.checkConditionalLocked(name, f); err != nil {
		return err
	}

	if !n.validated {
		n.cpds[name] = f
		return nil
	}

	prior, hadPrior := n.cpds[name]
	n.cpds[name] = f
	if err := n.validateLocked(); err != nil {
		if hadPrior {
			n.cpds[name] = prior
		} else {
			delete(n.cpds, name)
		}
		return err
	}
	return nil
}

// Validate checks the whole model: the dependency graph must be
// acyclic, every variable must carry a conditional distribution, and
// every distribution must match its declared scope and normalize per
// parent assignment. On success the network becomes queryable.
func (n *Network) Validate() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.validateLocked(); err != nil {
		return err
	}
	n.validated = true
	return nil
}

// ApplyUpdates replaces a batch of conditional distributions and
// revalidates the model once. Either every update lands and the model
// is valid afterwards, or none of them do: any failure restores the
// full prior state.
func (n *Network) ApplyUpdates(updates []Update) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	prior := make(map[string]factor.Factor, len(n.cpds))
	for name, cpd := range n.cpds {
		prior[name] = cpd
	}
	priorValidated := n.validated

	restore := func() {
		n.cpds = prior
		n.validated = priorValidated
	}

	for _, u := range updates {
		if _, ok := n.vars[u.Variable]; !ok {
			restore()
			return fmt.Errorf("apply updates: %q: %w", u.Variable, internalerr.ErrUnknownVariable)
		}
		if err := n.checkConditionalLocked(u.Variable, u.Conditional); err != nil {
			restore()
			return fmt.Errorf("apply updates: %w", err)
		}
		n.cpds[u.Variable] = u.Conditional
	}

	if err := n.validateLocked(); err != nil {
		restore()
		return fmt.Errorf("apply updates: %w", err)
	}
	n.validated = true
	return nil
}

// Validated reports whether the network passed its last validation and
// is queryable.
func (n *Network) Validated() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.validated
}

// Variables returns all registered variables in registration order.
func (n *Network) Variables() []factor.Variable {
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := make([]factor.Variable, len(n.order))
	for i, name := range n.order {
		out[i] = n.vars[name]
	}
	return out
}

// Variable looks up one registered variable by name.
func (n *Network) Variable(name string) (factor.Variable, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	v, ok := n.vars[name]
	return v, ok
}

// Parents returns the declared parents of a variable in edge order.
func (n *Network) Parents(name string) ([]string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if _, ok := n.vars[name]; !ok {
		return nil, false
	}
	parents := n.parents[name]
	out := make([]string, len(parents))
	copy(out, parents)
	return out, true
}

// Conditional returns the conditional distribution attached to name.
func (n *Network) Conditional(name string) (factor.Factor, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	cpd, ok := n.cpds[name]
	return cpd, ok
}

// Snapshot captures a consistent read-only view of a validated network.
// Queries work off the snapshot, so distributions swapped in later
// never mix into a computation already under way.
func (n *Network) Snapshot() (Snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if !n.validated {
		return Snapshot{}, fmt.Errorf("snapshot: %w", internalerr.ErrModelNotValidated)
	}
	vars := make([]factor.Variable, len(n.order))
	cpds := make([]factor.Factor, len(n.order))
	pos := make(map[string]int, len(n.order))
	for i, name := range n.order {
		vars[i] = n.vars[name]
		cpds[i] = n.cpds[name]
		pos[name] = i
	}
	return Snapshot{vars: vars, cpds: cpds, pos: pos}, nil
}

// checkConditionalLocked verifies one distribution against the declared
// structure: exact scope set, matching cardinalities, unit mass over the
// variable's states for every parent assignment.
func (n *Network) checkConditionalLocked(name string, f factor.Factor) error {
	want := make(map[string]struct{}, len(n.parents[name])+1)
	want[name] = struct{}{}
	for _, p := range n.parents[name] {
		want[p] = struct{}{}
	}

	scope := f.Scope()
	if len(scope) != len(want) {
		return fmt.Errorf("conditional for %q: scope has %d variables, want %d: %w",
			name, len(scope), len(want), internalerr.ErrScopeMismatch)
	}
	for _, v := range scope {
		if _, ok := want[v.Name]; !ok {
			return fmt.Errorf("conditional for %q: %q not in {variable, parents}: %w",
				name, v.Name, internalerr.ErrScopeMismatch)
		}
		if reg := n.vars[v.Name]; reg.Card != v.Card {
			return fmt.Errorf("conditional for %q: %q has cardinality %d, registered %d: %w",
				name, v.Name, v.Card, reg.Card, internalerr.ErrScopeMismatch)
		}
	}

	// Summing the variable out leaves one cell per parent assignment;
	// each must hold unit mass.
	margin, err := f.SumOut(name)
	if err != nil {
		return fmt.Errorf("conditional for %q: %w", name, err)
	}
	for i, mass := range margin.Values() {
		if math.Abs(mass-1) > factor.SumTolerance {
			return fmt.Errorf("conditional for %q: parent assignment %d has mass %g: %w",
				name, i, mass, internalerr.ErrNotAProbability)
		}
	}
	return nil
}

// validateLocked runs the full model check without touching the
// validated flag; callers decide what the outcome means for the flag.
func (n *Network) validateLocked() error {
	if err := n.checkAcyclicLocked(); err != nil {
		return err
	}
	for _, name := range n.order {
		cpd, ok := n.cpds[name]
		if !ok {
			return fmt.Errorf("validate: variable %q: %w", name, internalerr.ErrMissingConditional)
		}
		if err := n.checkConditionalLocked(name, cpd); err != nil {
			return err
		}
	}
	return nil
}

// checkAcyclicLocked runs Kahn's algorithm over the dependency edges.
func (n *Network) checkAcyclicLocked() error {
	indeg := make(map[string]int, len(n.order))
	for _, name := range n.order {
		indeg[name] = len(n.parents[name])
	}

	queue := make([]string, 0, len(n.order))
	for _, name := range n.order {
		if indeg[name] == 0 {
			queue = append(queue, name)
		}
	}

	processed := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		processed++
		for _, child := range n.children[cur] {
			indeg[child]--
			if indeg[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if processed != len(n.order) {
		return fmt.Errorf("validate: %w", internalerr.ErrCycle)
	}
	return nil
}

// reachesLocked reports whether target can be reached from start along
// existing dependency edges.
func (n *Network) reachesLocked(start, target string) bool {
	seen := make(map[string]struct{})
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if _, ok := seen[cur]; ok {
			continue
		}
		seen[cur] = struct{}{}
		stack = append(stack, n.children[cur]...)
	}
	return false
}

// Snapshot is an immutable view of a validated network: its variables
// in registration order and their conditional distributions.
type Snapshot struct {
	vars []factor.Variable
	cpds []factor.Factor
	pos  map[string]int
}

// Variables returns the snapshot's variables in registration order.
func (s Snapshot) Variables() []factor.Variable {
	out := make([]factor.Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Conditionals returns the snapshot's distributions, one per variable,
// in registration order.
func (s Snapshot) Conditionals() []factor.Factor {
	out := make([]factor.Factor, len(s.cpds))
	copy(out, s.cpds)
	return out
}

// Variable looks up a snapshot variable by name.
func (s Snapshot) Variable(name string) (factor.Variable, bool) {
	i, ok := s.pos[name]
	if !ok {
		return factor.Variable{}, false
	}
	return s.vars[i], true
}

// Position returns a variable's registration index, or -1 when absent.
func (s Snapshot) Position(name string) int {
	i, ok := s.pos[name]
	if !ok {
		return -1
	}
	return i
}
