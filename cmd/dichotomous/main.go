// Package main provides the dichotomous interpreter: it classifies every
// object in an object file against a key file and prints the results.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/liamcoop/dichotomous/internal/logger"
	"github.com/liamcoop/dichotomous/report"
	"github.com/liamcoop/dichotomous/rules"
)

const Version = "1.0.0"

type options struct {
	format   string
	where    string
	workers  int
	logLevel string
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "dichotomous <key-file> <object-file>",
		Short: "Classify objects with a dichotomous key",
		Long: `Dichotomous runs every object in an object file (.dco) through a
dichotomous key file (.dck) and prints one classification per object,
in input order.

Key files hold rules separated by %% lines. Each rule lists
conditions of the form tag:goto:N or tag:result:Label, tested in
order; the first match wins. A leading ! negates a tag and * matches
any object. Object files hold blocks separated by %%: the first line
names the object, the rest are the tags it has. Lines starting with ;
are comments.`,
		Version: Version,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError{fmt.Errorf("expected a key file and an object file, got %d argument(s)", len(args))}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), stdout, args[0], args[1], opts)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Report format (text, json, yaml)")
	cmd.Flags().StringVarP(&opts.where, "where", "w", "", "CEL filter over index, name, label, indeterminate, path")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "Objects evaluated in parallel")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	return cmd
}

// usageError marks argument problems so main can print usage for them
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func run(ctx context.Context, stdout io.Writer, keyPath, objectPath string, opts options) error {
	level, err := logger.ParseLevel(opts.logLevel)
	if err != nil {
		return usageError{err}
	}
	logger.SetLevel(level)

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return usageError{err}
	}

	var filter *report.Filter
	if opts.where != "" {
		filter, err = report.NewFilter(opts.where)
		if err != nil {
			return usageError{fmt.Errorf("invalid --where: %w", err)}
		}
	}

	keyText, err := os.ReadFile(keyPath)
	if err != nil {
		return err
	}
	key, err := rules.ParseKey(keyPath, string(keyText))
	if err != nil {
		return err
	}
	logger.Debug("key parsed", "file", keyPath, "rules", len(key.Rules))

	objectText, err := os.ReadFile(objectPath)
	if err != nil {
		return err
	}
	objects, err := rules.ParseObjects(objectPath, string(objectText))
	if err != nil {
		return err
	}
	logger.Debug("objects parsed", "file", objectPath, "objects", len(objects))

	results, err := rules.RunAllParallel(ctx, key, objects, opts.workers)
	if err != nil {
		return err
	}

	return report.Write(stdout, results, report.Options{Format: format, Filter: filter})
}

// execute runs the command line and returns the process exit code
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
