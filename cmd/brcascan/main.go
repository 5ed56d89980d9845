// Package main provides the brcascan command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "Run 'brcascan --help' for usage.\n")
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks errors caused by invalid command-line usage.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func minimumArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// cli holds state shared by all commands of one invocation.
type cli struct {
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string
	verbose bool
	logger  *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{
		stdout: stdout,
		stderr: stderr,
		logger: zap.NewNop(),
	}

	cmd := &cobra.Command{
		Use:   "brcascan",
		Short: "BRCA1/BRCA2 variant detection and clinical annotation",
		Long: `brcascan compares patient BRCA1/BRCA2 sequences against reference
sequences, recognizes curated pathogenic founder variants and annotates
them from ClinVar with a local fallback table.

This tool is an academic prototype and is not intended for clinical use.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default ~/.brcascan.yaml)")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(c.newAnalyzeCmd())
	cmd.AddCommand(c.newLookupCmd())
	cmd.AddCommand(c.newCatalogCmd())
	cmd.AddCommand(c.newHistoryCmd())
	cmd.AddCommand(c.newConfigCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *cli) init() error {
	if err := initConfig(c.cfgFile); err != nil {
		return err
	}
	c.logger = newLogger(c.verbose, c.stderr)
	return nil
}

// newLogger logs warnings and errors as JSON to w, or everything in
// console format when verbose.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	level := zapcore.WarnLevel
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	if verbose {
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func (c *cli) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(c.stdout, "brcascan version %s (%s) built %s\n", version, commit, date)
			return nil
		},
	}
}
