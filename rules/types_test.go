package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionMatches(t *testing.T) {
	with := NewObject("with", "A")
	without := NewObject("without")

	testCases := []struct {
		name    string
		cond    Condition
		with    bool
		without bool
	}{
		{"Plain tag", Condition{Tag: "A"}, true, false},
		{"Negated tag", Condition{Tag: "A", Negated: true}, false, true},
		{"Wildcard", Condition{Tag: Wildcard}, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.with, tc.cond.Matches(with))
			assert.Equal(t, tc.without, tc.cond.Matches(without))
		})
	}
}

func TestKeyRule(t *testing.T) {
	key := Key{Rules: []Rule{{}, {Conditions: []Condition{{Tag: "x"}}}}}

	_, ok := key.Rule(0)
	assert.False(t, ok)

	r, ok := key.Rule(2)
	assert.True(t, ok)
	assert.Len(t, r.Conditions, 1)

	_, ok = key.Rule(3)
	assert.False(t, ok)
}

func TestActionKindString(t *testing.T) {
	assert.Equal(t, "goto", ActionGoto.String())
	assert.Equal(t, "result", ActionResult.String())
	assert.Equal(t, "unknown", ActionKind(0).String())
}

func TestNewObjectCollapsesDuplicates(t *testing.T) {
	obj := NewObject("o", "a", "b", "a")
	assert.Len(t, obj.Conditions, 2)
	assert.True(t, obj.Has("a"))
	assert.False(t, obj.Has("c"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(&FormatError{File: "k", Line: 1, Err: ErrConditionParts}))
	assert.Equal(t, 1, ExitCode(&EvalError{Object: "o", Err: ErrCycle}))
	assert.Equal(t, 2, ExitCode(&EvalError{Object: "o", Err: ErrActionKind}))
}
