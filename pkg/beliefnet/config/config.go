package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Definition is a YAML description of a network: the variables, their
// parents and the conditional tables.
type Definition struct {
	Variables    []VariableDef    `yaml:"variables"`
	Conditionals []ConditionalDef `yaml:"conditionals"`
}

// VariableDef declares one discrete variable.
type VariableDef struct {
	Name        string `yaml:"name"`
	Cardinality int    `yaml:"cardinality"`
}

// ConditionalDef declares the conditional distribution of one variable.
// Table rows correspond to the variable's states, columns to the parent
// assignments with the last listed parent varying fastest. A variable
// without parents has one column.
type ConditionalDef struct {
	Variable string      `yaml:"variable"`
	Parents  []string    `yaml:"parents"`
	Table    [][]float64 `yaml:"table"`
}

// Load reads a network definition from a YAML file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse network definition: %w", err)
	}
	return &def, nil
}
