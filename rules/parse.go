package rules

import (
	"strings"
)

// BlockDelimiter separates rules in a key file and objects in an object file
const BlockDelimiter = "%%"

const commentPrefix = ";"

// line is a source line with its 1-based line number in the file
type line struct {
	num  int
	text string
}

// splitBlocks splits text on the block delimiter. A trailing delimiter
// yields an empty final block, which is kept so rule numbering stays stable.
func splitBlocks(text string) [][]line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, BlockDelimiter)
	blocks := make([][]line, 0, len(raw))
	num := 1
	for _, block := range raw {
		var lines []line
		for i, text := range strings.Split(block, "\n") {
			lines = append(lines, line{num: num + i, text: text})
		}
		num += strings.Count(block, "\n")
		blocks = append(blocks, lines)
	}
	return blocks
}

// substantive reports whether l is neither blank nor a comment
func (l line) substantive() bool {
	return strings.TrimSpace(l.text) != "" && !strings.HasPrefix(l.text, commentPrefix)
}
