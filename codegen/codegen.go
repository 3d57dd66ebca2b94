// Package codegen turns a parsed key into a standalone Go program that
// classifies object files against that key.
//
// The key is embedded as a key-file string literal and rebuilt at start-up
// with rules.ParseKey, so the generated program never evaluates code.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"strings"
	"text/template"

	"github.com/liamcoop/dichotomous/rules"
)

// DefaultImportPath is the module the generated program links against
const DefaultImportPath = "github.com/liamcoop/dichotomous"

// Options control Generate
type Options struct {
	// Source names the key file in the generated header and in error
	// messages produced by the generated program
	Source string

	// ImportPath overrides DefaultImportPath
	ImportPath string
}

var programTemplate = template.Must(template.New("program").Parse(`// Code generated by dichotomous-gen from {{.Source}}. DO NOT EDIT.

package main

import (
	"fmt"
	"os"

	"{{.ImportPath}}/report"
	"{{.ImportPath}}/rules"
)

// keySource is {{.Source}} in key-file syntax
const keySource = {{.Key}}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s objects_file.dco\n", os.Args[0])
		os.Exit(1)
	}
	os.Exit(run(os.Args[1]))
}

func run(path string) int {
	key, err := rules.ParseKey({{.SourceLiteral}}, keySource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	objects, err := rules.ParseObjects(path, string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return rules.ExitCode(err)
	}

	results, err := rules.RunAll(key, objects)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return rules.ExitCode(err)
	}

	if err := report.Write(os.Stdout, results, report.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
`))

// Generate writes gofmt-ed Go source for a program embedding key
func Generate(w io.Writer, key rules.Key, opts Options) error {
	text, err := rules.FormatKey(key)
	if err != nil {
		return fmt.Errorf("failed to serialize key: %w", err)
	}

	if opts.Source == "" {
		opts.Source = "key"
	}
	if opts.ImportPath == "" {
		opts.ImportPath = DefaultImportPath
	}

	var buf bytes.Buffer
	err = programTemplate.Execute(&buf, struct {
		Source        string
		SourceLiteral string
		ImportPath    string
		Key           string
	}{
		Source:        strings.NewReplacer("\n", " ", "\r", " ").Replace(opts.Source),
		SourceLiteral: strconv.Quote(opts.Source),
		ImportPath:    opts.ImportPath,
		Key:           strconv.Quote(text),
	})
	if err != nil {
		return fmt.Errorf("failed to render program: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to format generated program: %w", err)
	}

	_, err = w.Write(src)
	return err
}
