package rules

import "strings"

// ParseObjects parses object-file text into objects in source order.
// The first substantive line of a block names the object and every later
// one is a tag it possesses. Lines starting with "!" are reserved and
// discarded.
func ParseObjects(filename, text string) ([]Object, error) {
	blocks := splitBlocks(text)
	objects := make([]Object, 0, len(blocks))

	for _, block := range blocks {
		obj := Object{Conditions: make(map[string]struct{})}
		named := false
		last := 1
		for _, l := range block {
			last = l.num
			if !l.substantive() {
				continue
			}
			switch {
			case !named:
				obj.Name = l.text
				named = true
			case strings.HasPrefix(l.text, negationPrefix):
				// reserved, inert
			default:
				obj.Conditions[l.text] = struct{}{}
			}
		}
		if !named {
			return nil, &FormatError{File: filename, Line: last, Err: ErrMissingName}
		}
		objects = append(objects, obj)
	}

	return objects, nil
}
