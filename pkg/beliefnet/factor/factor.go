package factor

import (
	"fmt"
	"math"

	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
)

// SumTolerance is the permitted deviation from unit mass when a block of
// values is required to form a probability distribution.
const SumTolerance = 1e-6

// zeroMass is the threshold under which a factor cannot be normalized.
const zeroMass = 1e-12

// Variable is a discrete random variable with a finite ordered domain.
// Its states are the integers 0..Card-1.
type Variable struct {
	Name string
	Card int
}

// Factor is an immutable table of non-negative values over an ordered
// scope of variables. Values are stored densely in lexicographic order
// of the joint assignment, with the last scope variable varying fastest:
// the value for assignment (a_0, ..., a_k) sits at Σ a_i * stride_i,
// where stride_i is the product of the cardinalities after position i.
// An empty scope is a scalar with a single cell.
type Factor struct {
	scope  []Variable
	values []float64
}

// New builds a factor over scope holding the given values.
// It fails when the scope declares a duplicate or malformed variable,
// when len(values) does not match the scope's joint domain size, or
// when any value is negative or not finite.
func New(scope []Variable, values []float64) (Factor, error) {
	seen := make(map[string]struct{}, len(scope))
	for _, v := range scope {
		if v.Name == "" {
			return Factor{}, fmt.Errorf("factor: unnamed variable: %w", internalerr.ErrUnknownVariable)
		}
		if v.Card < 1 {
			return Factor{}, fmt.Errorf("factor: variable %q has cardinality %d: %w", v.Name, v.Card, internalerr.ErrOutOfDomain)
		}
		if _, ok := seen[v.Name]; ok {
			return Factor{}, fmt.Errorf("factor: variable %q appears twice in scope: %w", v.Name, internalerr.ErrDuplicateVariable)
		}
		seen[v.Name] = struct{}{}
	}
	if want := jointSize(scope); len(values) != want {
		return Factor{}, fmt.Errorf("factor: %d values for a scope of size %d: %w", len(values), want, internalerr.ErrScopeMismatch)
	}
	for i, val := range values {
		if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
			return Factor{}, fmt.Errorf("factor: value %g at index %d: %w", val, i, internalerr.ErrOutOfDomain)
		}
	}
	return Factor{scope: cloneScope(scope), values: cloneValues(values)}, nil
}

// Scope returns a copy of the factor's ordered scope.
func (f Factor) Scope() []Variable {
	return cloneScope(f.scope)
}

// Values returns a copy of the dense value table.
func (f Factor) Values() []float64 {
	return cloneValues(f.values)
}

// Size is the number of cells in the table.
func (f Factor) Size() int {
	return len(f.values)
}

// HasVariable reports whether name is part of the scope.
func (f Factor) HasVariable(name string) bool {
	return f.pos(name) >= 0
}

// Sum returns the total mass of the table using Kahan compensated
// summation, so large tables do not drift.
func (f Factor) Sum() float64 {
	var sum, comp float64
	for _, v := range f.values {
		y := v - comp
		t := sum + y
		comp = (t - sum) - y
		sum = t
	}
	return sum
}

// Value reads one cell. The assignment must cover every scope variable;
// names outside the scope are ignored.
func (f Factor) Value(assignment map[string]int) (float64, error) {
	st := strides(f.scope)
	idx := 0
	for i, v := range f.scope {
		state, ok := assignment[v.Name]
		if !ok {
			return 0, fmt.Errorf("factor value: no assignment for %q: %w", v.Name, internalerr.ErrScope)
		}
		if state < 0 || state >= v.Card {
			return 0, fmt.Errorf("factor value: %s=%d with cardinality %d: %w", v.Name, state, v.Card, internalerr.ErrOutOfDomain)
		}
		idx += state * st[i]
	}
	return f.values[idx], nil
}

// Restrict fixes one variable to a state and drops it from the scope,
// keeping only the matching cells. It fails when the variable is not in
// scope or the state is outside its domain.
func (f Factor) Restrict(name string, state int) (Factor, error) {
	pos := f.pos(name)
	if pos < 0 {
		return Factor{}, fmt.Errorf("restrict %q: %w", name, internalerr.ErrScope)
	}
	card := f.scope[pos].Card
	if state < 0 || state >= card {
		return Factor{}, fmt.Errorf("restrict %s=%d with cardinality %d: %w", name, state, card, internalerr.ErrOutOfDomain)
	}
	st := strides(f.scope)
	out := make([]float64, 0, len(f.values)/card)
	for i, val := range f.values {
		if (i/st[pos])%card == state {
			out = append(out, val)
		}
	}
	return Factor{scope: dropVariable(f.scope, pos), values: out}, nil
}

// Product multiplies two factors pointwise over the union of their
// scopes, broadcasting each operand across the variables it does not
// mention. The result scope lists f's variables first, then the
// variables only other mentions, in their original orders. It fails
// when a shared name carries two different cardinalities.
func (f Factor) Product(other Factor) (Factor, error) {
	union := make([]Variable, 0, len(f.scope)+len(other.scope))
	union = append(union, f.scope...)
	for _, v := range other.scope {
		p := posOf(f.scope, v.Name)
		if p < 0 {
			union = append(union, v)
			continue
		}
		if f.scope[p].Card != v.Card {
			return Factor{}, fmt.Errorf("product: variable %q has cardinality %d and %d: %w",
				v.Name, f.scope[p].Card, v.Card, internalerr.ErrScopeMismatch)
		}
	}

	st := strides(union)
	fst := strides(f.scope)
	ost := strides(other.scope)
	fmul := make([]int, len(union))
	omul := make([]int, len(union))
	for i, v := range union {
		if p := posOf(f.scope, v.Name); p >= 0 {
			fmul[i] = fst[p]
		}
		if p := posOf(other.scope, v.Name); p >= 0 {
			omul[i] = ost[p]
		}
	}

	out := make([]float64, jointSize(union))
	for i := range out {
		fi, oi := 0, 0
		for d, v := range union {
			state := (i / st[d]) % v.Card
			fi += state * fmul[d]
			oi += state * omul[d]
		}
		out[i] = f.values[fi] * other.values[oi]
	}
	return Factor{scope: union, values: out}, nil
}

// SumOut marginalizes one variable, summing the table over its states.
// It fails when the variable is not in scope.
func (f Factor) SumOut(name string) (Factor, error) {
	pos := f.pos(name)
	if pos < 0 {
		return Factor{}, fmt.Errorf("sum out %q: %w", name, internalerr.ErrScope)
	}
	st := strides(f.scope)
	card := f.scope[pos].Card
	out := make([]float64, len(f.values)/card)
	block := st[pos] * card
	for i, val := range f.values {
		out[(i/block)*st[pos]+i%st[pos]] += val
	}
	return Factor{scope: dropVariable(f.scope, pos), values: out}, nil
}

// Normalize scales the table to unit mass. It fails when the total mass
// is effectively zero, which signals a model inconsistent with the
// evidence rather than a recoverable state.
func (f Factor) Normalize() (Factor, error) {
	total := f.Sum()
	if total <= zeroMass {
		return Factor{}, fmt.Errorf("normalize: total mass %g: %w", total, internalerr.ErrDegenerate)
	}
	out := make([]float64, len(f.values))
	for i, val := range f.values {
		out[i] = val / total
	}
	return Factor{scope: cloneScope(f.scope), values: out}, nil
}

// Align transposes the table to a caller-chosen scope order. The names
// must be exactly the factor's scope variables, each once.
func (f Factor) Align(names []string) (Factor, error) {
	if len(names) != len(f.scope) {
		return Factor{}, fmt.Errorf("align: %d names for a scope of %d variables: %w",
			len(names), len(f.scope), internalerr.ErrScopeMismatch)
	}
	scope := make([]Variable, len(names))
	perm := make([]int, len(names))
	used := make(map[string]struct{}, len(names))
	for i, name := range names {
		if _, ok := used[name]; ok {
			return Factor{}, fmt.Errorf("align: name %q repeated: %w", name, internalerr.ErrDuplicateVariable)
		}
		used[name] = struct{}{}
		p := f.pos(name)
		if p < 0 {
			return Factor{}, fmt.Errorf("align: %q not in scope: %w", name, internalerr.ErrScopeMismatch)
		}
		scope[i] = f.scope[p]
		perm[i] = p
	}

	oldst := strides(f.scope)
	newst := strides(scope)
	out := make([]float64, len(f.values))
	for i := range out {
		oi := 0
		for d, v := range scope {
			state := (i / newst[d]) % v.Card
			oi += state * oldst[perm[d]]
		}
		out[i] = f.values[oi]
	}
	return Factor{scope: scope, values: out}, nil
}

func (f Factor) pos(name string) int {
	return posOf(f.scope, name)
}

func posOf(scope []Variable, name string) int {
	for i, v := range scope {
		if v.Name == name {
			return i
		}
	}
	return -1
}

// jointSize is the product of the scope cardinalities; 1 for an empty scope.
func jointSize(scope []Variable) int {
	n := 1
	for _, v := range scope {
		n *= v.Card
	}
	return n
}

// strides maps each scope position to the distance between consecutive
// states of that variable in the dense table. The last position has
// stride 1.
func strides(scope []Variable) []int {
	st := make([]int, len(scope))
	acc := 1
	for i := len(scope) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= scope[i].Card
	}
	return st
}

func dropVariable(scope []Variable, pos int) []Variable {
	out := make([]Variable, 0, len(scope)-1)
	out = append(out, scope[:pos]...)
	out = append(out, scope[pos+1:]...)
	return out
}

func cloneScope(scope []Variable) []Variable {
	out := make([]Variable, len(scope))
	copy(out, scope)
	return out
}

func cloneValues(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	return out
}
