package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey_RulesAndConditions(t *testing.T) {
	key, err := ParseKey("bird.dck", "A:goto:2\n%%\n*:result:Bird")
	require.NoError(t, err)
	require.Len(t, key.Rules, 2)

	assert.Equal(t, []Condition{{Tag: "A", Action: Goto(2)}}, key.Rules[0].Conditions)
	assert.Equal(t, []Condition{{Tag: "*", Action: Result("Bird")}}, key.Rules[1].Conditions)
}

func TestParseKey_BlockCount(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		rules int
	}{
		{"Empty text", "", 1},
		{"Single rule", "A:result:X\n", 1},
		{"Two rules", "A:result:X\n%%\nB:result:Y\n", 2},
		{"Trailing delimiter", "A:result:X\n%%", 2},
		{"Trailing delimiter with newline", "A:result:X\n%%\n", 2},
		{"Empty middle rule", "A:goto:3\n%%\n%%\n*:result:Y", 3},
		{"Delimiter mid-line", "A:result:X%%B:result:Y", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := ParseKey("k", tc.text)
			require.NoError(t, err)
			assert.Len(t, key.Rules, tc.rules)
		})
	}
}

func TestParseKey_TrailingDelimiterKeepsEmptyRule(t *testing.T) {
	key, err := ParseKey("k", "A:result:X\n%%\n")
	require.NoError(t, err)
	require.Len(t, key.Rules, 2)
	assert.Empty(t, key.Rules[1].Conditions)
}

func TestParseKey_ConditionOrderPreserved(t *testing.T) {
	key, err := ParseKey("k", "C:result:3\nA:result:1\nB:result:2\n")
	require.NoError(t, err)
	require.Len(t, key.Rules, 1)

	var tags []string
	for _, c := range key.Rules[0].Conditions {
		tags = append(tags, c.Tag)
	}
	assert.Equal(t, []string{"C", "A", "B"}, tags)
}

func TestParseKey_SkipsCommentsAndBlankLines(t *testing.T) {
	text := "; the first rule\n\n   \n\t\nA:result:X\n;B:result:Y\n"
	key, err := ParseKey("k", text)
	require.NoError(t, err)
	require.Len(t, key.Rules, 1)
	assert.Equal(t, []Condition{{Tag: "A", Action: Result("X")}}, key.Rules[0].Conditions)
}

func TestParseKey_Negation(t *testing.T) {
	key, err := ParseKey("k", "!feathers:result:Fish\n!!odd:goto:1\n")
	require.NoError(t, err)

	conds := key.Rules[0].Conditions
	require.Len(t, conds, 2)
	assert.Equal(t, Condition{Tag: "feathers", Negated: true, Action: Result("Fish")}, conds[0])
	assert.Equal(t, Condition{Tag: "!odd", Negated: true, Action: Goto(1)}, conds[1])
}

func TestParseKey_LabelKeepsSeparators(t *testing.T) {
	key, err := ParseKey("k", "A:result:Genus: species: subspecies\n")
	require.NoError(t, err)
	assert.Equal(t, "Genus: species: subspecies", key.Rules[0].Conditions[0].Action.Label)
}

func TestParseKey_GotoArgumentWhitespace(t *testing.T) {
	key, err := ParseKey("k", "A:goto: 3 \n")
	require.NoError(t, err)
	assert.Equal(t, Goto(3), key.Rules[0].Conditions[0].Action)
}

func TestParseKey_CarriageReturns(t *testing.T) {
	key, err := ParseKey("k", "A:result:X\r\nB:result:Y\r\n%%\r\n*:goto:1\r\n")
	require.NoError(t, err)
	require.Len(t, key.Rules, 2)
	assert.Equal(t, "X", key.Rules[0].Conditions[0].Action.Label)
	assert.Equal(t, "Y", key.Rules[0].Conditions[1].Action.Label)
	assert.Equal(t, Goto(1), key.Rules[1].Conditions[0].Action)
}

func TestParseKey_FormatErrors(t *testing.T) {
	testCases := []struct {
		name string
		text string
		line int
		want error
	}{
		{"Too few parts", "A:result", 1, ErrConditionParts},
		{"Single word", "wings", 1, ErrConditionParts},
		{"Unknown action", "A:jump:2", 1, ErrUnknownAction},
		{"Action is case sensitive", "A:GOTO:2", 1, ErrUnknownAction},
		{"Non-numeric goto", "A:goto:two", 1, ErrGotoArgument},
		{"Goto with trailing field", "A:goto:2:extra", 1, ErrGotoArgument},
		{"Negated wildcard", "!*:result:X", 1, ErrNegatedWildcard},
		{"Error in later rule", "A:result:X\n%%\n; c\nB:bad:1", 4, ErrUnknownAction},
		{"Error after blank lines", "\n\nA:result:X\nB", 4, ErrConditionParts},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseKey("key.dck", tc.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var fe *FormatError
			require.True(t, errors.As(err, &fe), "expected *FormatError, got %T", err)
			assert.Equal(t, "key.dck", fe.File)
			assert.Equal(t, tc.line, fe.Line)
		})
	}
}

func TestParseKey_FirstErrorWins(t *testing.T) {
	_, err := ParseKey("key.dck", "A:goto:x\nB:jump:1\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGotoArgument)
	assert.Equal(t, "key.dck:1: goto action requires integer argument", err.Error())
}
