package report

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/liamcoop/dichotomous/rules"
)

// filterCostLimit bounds the work a single filter evaluation may do
const filterCostLimit = 100000

// Filter selects report entries with a CEL expression over
//
//	index         int       1-based position in the batch
//	name          string    object name
//	label         string    result label, "" when indeterminate
//	indeterminate bool
//	path          list(int) rule numbers visited
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles expr. The expression must type-check to bool.
func NewFilter(expr string) (*Filter, error) {
	env, err := cel.NewEnv(
		cel.Variable("index", cel.IntType),
		cel.Variable("name", cel.StringType),
		cel.Variable("label", cel.StringType),
		cel.Variable("indeterminate", cel.BoolType),
		cel.Variable("path", cel.ListType(cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("filter %q must evaluate to bool, not %s", expr, ast.OutputType())
	}

	prog, err := env.Program(ast, cel.CostLimit(filterCostLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression
func (f *Filter) String() string {
	return f.expr
}

// Match reports whether the entry at 1-based index passes the filter
func (f *Filter) Match(index int, c rules.Classification) (bool, error) {
	path := make([]int64, len(c.Path))
	for i, n := range c.Path {
		path[i] = int64(n)
	}

	out, _, err := f.prog.Eval(map[string]any{
		"index":         int64(index),
		"name":          c.Object,
		"label":         c.Label,
		"indeterminate": c.Indeterminate,
		"path":          path,
	})
	if err != nil {
		return false, fmt.Errorf("filter %q on %q: %w", f.expr, c.Object, err)
	}

	matched, ok := out.Value().(bool)
	return ok && matched, nil
}
