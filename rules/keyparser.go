package rules

import (
	"strconv"
	"strings"
)

const (
	negationPrefix = "!"
	fieldSeparator = ":"
)

// ParseKey parses key-file text into a Key. filename is only used in error
// messages. The first malformed line aborts the parse.
func ParseKey(filename, text string) (Key, error) {
	blocks := splitBlocks(text)
	key := Key{Rules: make([]Rule, 0, len(blocks))}

	for _, block := range blocks {
		rule := Rule{}
		for _, l := range block {
			if !l.substantive() {
				continue
			}
			cond, err := parseCondition(l.text)
			if err != nil {
				return Key{}, &FormatError{File: filename, Line: l.num, Err: err}
			}
			rule.Conditions = append(rule.Conditions, cond)
		}
		key.Rules = append(key.Rules, rule)
	}

	return key, nil
}

func parseCondition(text string) (Condition, error) {
	fields := strings.Split(text, fieldSeparator)
	if len(fields) < 3 {
		return Condition{}, ErrConditionParts
	}

	cond := Condition{Tag: fields[0]}
	if strings.HasPrefix(cond.Tag, negationPrefix) {
		cond.Negated = true
		cond.Tag = cond.Tag[len(negationPrefix):]
	}
	if cond.Negated && cond.Tag == Wildcard {
		return Condition{}, ErrNegatedWildcard
	}

	// Labels may contain the separator themselves
	arg := strings.Join(fields[2:], fieldSeparator)

	switch fields[1] {
	case "goto":
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil {
			return Condition{}, ErrGotoArgument
		}
		cond.Action = Goto(n)
	case "result":
		cond.Action = Result(arg)
	default:
		return Condition{}, ErrUnknownAction
	}

	return cond, nil
}
