package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Format errors
var (
	ErrConditionParts  = errors.New("a condition statement requires three parts")
	ErrUnknownAction   = errors.New("action not recognized")
	ErrGotoArgument    = errors.New("goto action requires integer argument")
	ErrNegatedWildcard = errors.New("wildcard cannot be negated")
	ErrMissingName     = errors.New("a name is required for an object")
	ErrUnrepresentable = errors.New("key cannot be written in key-file syntax")
)

// Evaluation errors
var (
	ErrTargetNotFound = errors.New("goto target does not exist")
	ErrInfiniteLoop   = errors.New("infinite loop detected")
	ErrCycle          = errors.New("cycle detected")
	ErrActionKind     = errors.New("action kind does not exist")
	ErrEmptyKey       = errors.New("key has no rules")
)

// Storage errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrKeyExists   = errors.New("key already exists")
)

// FormatError reports malformed key or object source text
type FormatError struct {
	File string
	Line int
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// EvalError reports a structural problem in a key found while evaluating an object
type EvalError struct {
	Object string
	From   int   // rule holding the offending condition, 0 for an empty key
	Target int   // goto target, 0 when not applicable
	Path   []int // rules visited before the failure
	Err    error
}

func (e *EvalError) Error() string {
	switch {
	case errors.Is(e.Err, ErrEmptyKey):
		return fmt.Sprintf("object %q: %v", e.Object, e.Err)
	case errors.Is(e.Err, ErrTargetNotFound):
		return fmt.Sprintf("object %q: cannot goto rule %d from rule %d, as it does not exist", e.Object, e.Target, e.From)
	case errors.Is(e.Err, ErrInfiniteLoop):
		return fmt.Sprintf("object %q: infinite loop detected, goto rule %d from rule %d", e.Object, e.Target, e.From)
	case errors.Is(e.Err, ErrCycle):
		return fmt.Sprintf("object %q: cycle detected, goto rule %d from rule %d (path %s)", e.Object, e.Target, e.From, formatPath(e.Path))
	default:
		return fmt.Sprintf("object %q: rule %d: %v", e.Object, e.From, e.Err)
	}
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func formatPath(path []int) string {
	parts := make([]string, len(path))
	for i, n := range path {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, " -> ")
}

// ExitCode maps an error to a process exit status: 0 for nil, 2 for an
// action kind the evaluator does not know, 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrActionKind):
		return 2
	default:
		return 1
	}
}
