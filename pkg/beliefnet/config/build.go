package config

import (
	"fmt"

	"github.com/cognicore/beliefnet/pkg/beliefnet/factor"
	"github.com/cognicore/beliefnet/pkg/beliefnet/internalerr"
	"github.com/cognicore/beliefnet/pkg/beliefnet/model"
)

// Build constructs a validated network from the definition: variables
// are registered in file order, dependencies come from the parent
// lists, and every conditional table is checked by the model. Model
// errors surface unchanged so callers can match them.
func (d *Definition) Build() (*model.Network, error) {
	if len(d.Variables) == 0 {
		return nil, fmt.Errorf("network definition has no variables: %w", internalerr.ErrInvalidConfig)
	}

	n := model.New()
	for _, v := range d.Variables {
		if err := n.AddVariable(v.Name, v.Cardinality); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(d.Conditionals))
	for _, c := range d.Conditionals {
		if _, ok := seen[c.Variable]; ok {
			return nil, fmt.Errorf("conditional for %q defined twice: %w", c.Variable, internalerr.ErrDuplicate)
		}
		seen[c.Variable] = struct{}{}
		for _, parent := range c.Parents {
			if err := n.AddDependency(parent, c.Variable); err != nil {
				return nil, err
			}
		}
	}

	for _, c := range d.Conditionals {
		f, err := conditionalFactor(n, c)
		if err != nil {
			return nil, err
		}
		if err := n.SetConditional(c.Variable, f); err != nil {
			return nil, err
		}
	}

	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

// conditionalFactor converts one table definition into a factor with
// scope (parents..., variable). The table's column layout, last parent
// fastest, is exactly the factor's own layout once the variable's state
// index is appended, so the conversion is a transpose of rows into the
// fastest position.
func conditionalFactor(n *model.Network, c ConditionalDef) (factor.Factor, error) {
	child, ok := n.Variable(c.Variable)
	if !ok {
		return factor.Factor{}, fmt.Errorf("conditional for %q: %w", c.Variable, internalerr.ErrUnknownVariable)
	}

	scope := make([]factor.Variable, 0, len(c.Parents)+1)
	columns := 1
	for _, name := range c.Parents {
		parent, ok := n.Variable(name)
		if !ok {
			return factor.Factor{}, fmt.Errorf("conditional for %q: parent %q: %w",
				c.Variable, name, internalerr.ErrUnknownVariable)
		}
		scope = append(scope, parent)
		columns *= parent.Card
	}
	scope = append(scope, child)

	if len(c.Table) != child.Card {
		return factor.Factor{}, fmt.Errorf("conditional for %q: %d rows for cardinality %d: %w",
			c.Variable, len(c.Table), child.Card, internalerr.ErrInvalidConfig)
	}
	values := make([]float64, columns*child.Card)
	for state, row := range c.Table {
		if len(row) != columns {
			return factor.Factor{}, fmt.Errorf("conditional for %q: row %d has %d columns, want %d: %w",
				c.Variable, state, len(row), columns, internalerr.ErrInvalidConfig)
		}
		for combo, v := range row {
			values[combo*child.Card+state] = v
		}
	}
	return factor.New(scope, values)
}
