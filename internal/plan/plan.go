// Package plan models the load order of tables as a dependency graph.
//
// A plan is a directed acyclic graph over table names. Tiers are derived by
// topological layering: a table lands in the first tier where every table it
// depends on has already been placed.
package plan

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyName is returned when a table has no name.
	ErrEmptyName = errors.New("table name is empty")
	// ErrDuplicateTable is returned when a table is declared twice.
	ErrDuplicateTable = errors.New("duplicate table")
	// ErrUnknownDependency is returned when a dependency names an undeclared table.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrCycle is returned when the dependencies cannot be ordered.
	ErrCycle = errors.New("dependency cycle")
)

// Table is a node of the plan.
type Table struct {
	Name      string   `yaml:"name"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// Plan is a validated dependency graph with its tiers precomputed.
type Plan struct {
	tables []Table
	tiers  [][]string
}

// New validates the tables and computes their tiers.
func New(tables []Table) (*Plan, error) {
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("table #%d: %w", i+1, ErrEmptyName)
		}
		if _, ok := index[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
		}
		index[t.Name] = i
	}

	for _, t := range tables {
		for _, dep := range t.DependsOn {
			if dep == t.Name {
				return nil, fmt.Errorf("%w: %s depends on itself", ErrCycle, t.Name)
			}
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on %s", ErrUnknownDependency, t.Name, dep)
			}
		}
	}

	tiers, err := layer(tables)
	if err != nil {
		return nil, err
	}

	owned := make([]Table, len(tables))
	for i, t := range tables {
		owned[i] = Table{Name: t.Name, DependsOn: append([]string(nil), t.DependsOn...)}
	}
	return &Plan{tables: owned, tiers: tiers}, nil
}

// FromTiers builds a plan from positional tiers. Every table of a tier
// depends on every table of the tier before it.
func FromTiers(tiers [][]string) (*Plan, error) {
	var tables []Table
	var previous []string
	for _, tier := range tiers {
		if len(tier) == 0 {
			continue
		}
		for _, name := range tier {
			tables = append(tables, Table{Name: name, DependsOn: previous})
		}
		previous = tier
	}
	return New(tables)
}

// Tiers returns the tables grouped by dependency level, earliest first.
// Within a tier tables keep their declaration order.
func (p *Plan) Tiers() [][]string {
	out := make([][]string, len(p.tiers))
	for i, tier := range p.tiers {
		out[i] = append([]string(nil), tier...)
	}
	return out
}

// Tables returns the declared tables in declaration order.
func (p *Plan) Tables() []Table {
	out := make([]Table, len(p.tables))
	copy(out, p.tables)
	return out
}

// Len returns the number of tables in the plan.
func (p *Plan) Len() int {
	return len(p.tables)
}

// layer runs Kahn's algorithm one level at a time.
func layer(tables []Table) ([][]string, error) {
	inDegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string)
	for _, t := range tables {
		seen := make(map[string]bool, len(t.DependsOn))
		for _, dep := range t.DependsOn {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			inDegree[t.Name]++
			dependents[dep] = append(dependents[dep], t.Name)
		}
	}

	placed := make(map[string]bool, len(tables))
	var tiers [][]string
	for len(placed) < len(tables) {
		var tier []string
		for _, t := range tables {
			if !placed[t.Name] && inDegree[t.Name] == 0 {
				tier = append(tier, t.Name)
			}
		}
		if len(tier) == 0 {
			var remaining []string
			for _, t := range tables {
				if !placed[t.Name] {
					remaining = append(remaining, t.Name)
				}
			}
			return nil, fmt.Errorf("%w among: %s", ErrCycle, strings.Join(remaining, ", "))
		}
		for _, name := range tier {
			placed[name] = true
			for _, child := range dependents[name] {
				inDegree[child]--
			}
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// TargetName derives the database table name from a plan table name by
// stripping a trailing file extension. Names without a dot are unchanged.
func TargetName(table string) string {
	ext := filepath.Ext(table)
	if ext == "" || ext == table {
		return table
	}
	return strings.TrimSuffix(table, ext)
}
