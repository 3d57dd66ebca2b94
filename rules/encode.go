package rules

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatKey writes key back out in key-file syntax such that ParseKey
// reconstructs an identical Key: same rules, same condition order, same
// negation flags and action payloads.
func FormatKey(key Key) (string, error) {
	if len(key.Rules) == 0 {
		return "", fmt.Errorf("key has no rules: %w", ErrUnrepresentable)
	}
	var b strings.Builder
	for i, rule := range key.Rules {
		if i > 0 {
			b.WriteString(BlockDelimiter)
			b.WriteString("\n")
		}
		for j, cond := range rule.Conditions {
			text, err := formatCondition(cond)
			if err != nil {
				return "", fmt.Errorf("rule %d condition %d: %w", i+1, j+1, err)
			}
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func formatCondition(cond Condition) (string, error) {
	if err := checkTag(cond); err != nil {
		return "", err
	}

	tag := cond.Tag
	if cond.Negated {
		tag = negationPrefix + tag
	}

	switch cond.Action.Kind {
	case ActionGoto:
		return tag + ":goto:" + strconv.Itoa(cond.Action.Target), nil
	case ActionResult:
		if err := checkText(cond.Action.Label); err != nil {
			return "", fmt.Errorf("label %q: %w", cond.Action.Label, err)
		}
		return tag + ":result:" + cond.Action.Label, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrActionKind, int(cond.Action.Kind))
	}
}

func checkTag(cond Condition) error {
	bad := func(reason string) error {
		return fmt.Errorf("tag %q %s: %w", cond.Tag, reason, ErrUnrepresentable)
	}
	if err := checkText(cond.Tag); err != nil {
		return fmt.Errorf("tag %q: %w", cond.Tag, err)
	}
	switch {
	case strings.Contains(cond.Tag, fieldSeparator):
		return bad("contains " + fieldSeparator)
	case cond.Negated && cond.Tag == Wildcard:
		return ErrNegatedWildcard
	case !cond.Negated && strings.HasPrefix(cond.Tag, negationPrefix):
		return bad("starts with " + negationPrefix)
	case !cond.Negated && strings.HasPrefix(cond.Tag, commentPrefix):
		return bad("starts with " + commentPrefix)
	}
	return nil
}

func checkText(s string) error {
	if strings.Contains(s, BlockDelimiter) || strings.ContainsAny(s, "\r\n") {
		return ErrUnrepresentable
	}
	return nil
}
