// Package main provides dichotomous-gen, which compiles a key file into a
// standalone Go program that classifies object files against it.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liamcoop/dichotomous/codegen"
	"github.com/liamcoop/dichotomous/internal/logger"
	"github.com/liamcoop/dichotomous/rules"
)

const Version = "1.0.0"

// usageError marks argument problems so usage is printed with them
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var importPath string

	cmd := &cobra.Command{
		Use:   "dichotomous-gen <output.go> <key-file>",
		Short: "Generate a standalone classifier program from a key",
		Long: `dichotomous-gen parses a dichotomous key file and writes a Go main
package that embeds the key. Build the output with "go build" and run
it with an object file to print classifications without the key file.`,
		Version: Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError{fmt.Errorf("expected an output file and a key file, got %d argument(s)", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(args[0], args[1], importPath)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.Flags().StringVar(&importPath, "import-path", codegen.DefaultImportPath, "Module path the generated program imports")

	return cmd
}

func generate(outPath, keyPath, importPath string) error {
	text, err := os.ReadFile(keyPath)
	if err != nil {
		return err
	}
	key, err := rules.ParseKey(keyPath, string(text))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	opts := codegen.Options{Source: filepath.Base(keyPath), ImportPath: importPath}
	if err := codegen.Generate(&buf, key, opts); err != nil {
		return err
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	logger.Info("program generated", "key", keyPath, "rules", len(key.Rules), "output", outPath)
	return nil
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return rules.ExitCode(err)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
