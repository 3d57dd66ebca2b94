// Package report renders classification results for people and programs.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/dichotomous/rules"
)

// IndeterminateText is printed in place of a label for unclassified objects
const IndeterminateText = "Indeterminate"

// Format selects the report rendering
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name; empty means text
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (use text, json or yaml)", s)
	}
}

// Entry is one reported object with its 1-based position in the batch
type Entry struct {
	Index                int `json:"index" yaml:"index"`
	rules.Classification `yaml:",inline"`
}

// Options control Write
type Options struct {
	Format Format
	Filter *Filter // nil reports everything
}

// Entries numbers results in batch order and applies the filter.
// Filtered-out entries leave gaps in the numbering.
func Entries(results []rules.Classification, filter *Filter) ([]Entry, error) {
	entries := make([]Entry, 0, len(results))
	for i, c := range results {
		if filter != nil {
			ok, err := filter.Match(i+1, c)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		entries = append(entries, Entry{Index: i + 1, Classification: c})
	}
	return entries, nil
}

// Write renders results to w
func Write(w io.Writer, results []rules.Classification, opts Options) error {
	entries, err := Entries(results, opts.Filter)
	if err != nil {
		return err
	}

	switch opts.Format {
	case "", FormatText:
		return writeText(w, entries)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

// writeText prints "N. name: label" lines
func writeText(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		label := e.Label
		if e.Indeterminate {
			label = IndeterminateText
		}
		if _, err := fmt.Fprintf(w, "%d. %s: %s\n", e.Index, e.Object, label); err != nil {
			return err
		}
	}
	return nil
}
