package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatKey_Output(t *testing.T) {
	key := Key{Rules: []Rule{
		{Conditions: []Condition{
			{Tag: "A", Action: Goto(2)},
			{Tag: "B", Negated: true, Action: Result("Not B")},
		}},
		{Conditions: []Condition{{Tag: Wildcard, Action: Result("Bird")}}},
	}}

	text, err := FormatKey(key)
	require.NoError(t, err)
	assert.Equal(t, "A:goto:2\n!B:result:Not B\n%%\n*:result:Bird\n", text)
}

func TestFormatKey_RoundTrip(t *testing.T) {
	sources := map[string]string{
		"simple":            "A:goto:2\n%%\n*:result:Bird",
		"trailing empty":    "A:result:X\n%%",
		"empty middle":      "A:goto:3\n%%\n%%\n*:result:Y\n",
		"comments":          "; header\nA:result:X\n\n; more\n!B:goto:1\n",
		"label separators":  "A:result:Genus: species\n",
		"double negation":   "!!A:result:X\n",
		"negative target":   "A:goto:-4\n",
		"whitespace target": "A:goto:  7\n",
		"empty tag":         ":result:blank\n",
		"empty text":        "",
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			original, err := ParseKey("k", src)
			require.NoError(t, err)

			text, err := FormatKey(original)
			require.NoError(t, err)

			back, err := ParseKey("k", text)
			require.NoError(t, err)

			if diff := cmp.Diff(original, back, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormatKey_Unrepresentable(t *testing.T) {
	testCases := []struct {
		name string
		key  Key
		want error
	}{
		{"No rules", Key{}, ErrUnrepresentable},
		{"Tag with separator", oneCondition(Condition{Tag: "a:b", Action: Result("X")}), ErrUnrepresentable},
		{"Tag with newline", oneCondition(Condition{Tag: "a\nb", Action: Result("X")}), ErrUnrepresentable},
		{"Label with delimiter", oneCondition(Condition{Tag: "a", Action: Result("x%%y")}), ErrUnrepresentable},
		{"Plain tag looks negated", oneCondition(Condition{Tag: "!a", Action: Result("X")}), ErrUnrepresentable},
		{"Plain tag looks like comment", oneCondition(Condition{Tag: ";a", Action: Result("X")}), ErrUnrepresentable},
		{"Negated wildcard", oneCondition(Condition{Tag: Wildcard, Negated: true, Action: Result("X")}), ErrNegatedWildcard},
		{"Unknown action", oneCondition(Condition{Tag: "a", Action: Action{Kind: 7}}), ErrActionKind},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FormatKey(tc.key)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func oneCondition(c Condition) Key {
	return Key{Rules: []Rule{{Conditions: []Condition{c}}}}
}
