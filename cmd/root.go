// Package cmd provides the command-line interface for kiln.
//
// Configuration System:
//
//	Every command starts from one merged project configuration. Sources, highest
//	priority first:
//	1. --set key.path=value and the option flags (--source-dir, --typescript, ...)
//	2. KILN_<FLAG> environment variables (KILN_SOURCE_DIR, KILN_TYPESCRIPT, ...)
//	3. The project configuration file (kiln.config.yaml, .yml, .json, .toml, .kilnrc)
//	4. Built-in defaults
//
// Environment Variables:
//
//	KILN_CONFIG: the merged configuration as JSON, written for child processes
//	KILN_LOG_LEVEL, KILN_LOG_FORMAT, KILN_LOG_SOURCE: logger settings
package cmd

import (
	"context"
	"errors"
	"os/exec"

	"github.com/spf13/cobra"

	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/logging"
)

// Exit codes for CLI commands. A tool started by "kiln run" passes its own
// exit code through.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configFile  string
	workDir     string
	root        bool
	logLevel    string
	set         []string
	appendPaths []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kiln",
		Short: "Project configuration and module resolution for JavaScript toolchains",
		Long: `kiln loads a project's build, test and lint configuration, merges it with
built-in defaults and command-line overrides, and resolves module specifiers
and tool binaries before handing work to the bundler, transpiler, linter or
test runner.

Quick Start:
  kiln config show                  Print the merged configuration
  kiln config validate              Check the configuration for problems
  kiln resolve ./src/app            Resolve a module specifier
  kiln which jest                   Locate a tool binary
  kiln run jest --coverage          Run a tool with the configuration

Overrides:
  kiln --source-dir lib config show
  kiln --set webpack.devServer.port=3000 config show
  kiln --set jest.setupFiles=[./extra.js] --append jest.setupFiles config show`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadSession(cmd, opts)
		},
	}
	cmd.SetVersionTemplate(`{{printf "kiln version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "configuration file (default is the nearest kiln.config.* from the working directory)")
	flags.StringVarP(&opts.workDir, "cwd", "C", "", "working directory (default is the current directory)")
	flags.BoolVar(&opts.root, "root", false, "only look for the configuration file in the working directory")
	flags.StringVarP(&opts.logLevel, "log-level", "l", "", "log level (debug, info, warn, error); default from KILN_LOG_LEVEL")
	flags.String("source-dir", "", "source directory, relative to the project root")
	flags.String("output-dir", "", "output directory, relative to the project root")
	flags.Bool("typescript", false, "treat the project as a TypeScript project")
	flags.StringArrayVar(&opts.set, "set", nil, "set a configuration value as key.path=value (repeatable)")
	flags.StringArrayVar(&opts.appendPaths, "append", nil, "concatenate arrays at key.path instead of replacing them (repeatable)")

	cmd.AddCommand(
		newConfigCmd(),
		newResolveCmd(),
		newWhichCmd(),
		newRunCmd(),
		newVersionCmd(),
	)

	return cmd
}

// Execute runs the kiln command line. Errors are logged before they are
// returned; use ExitCode to turn them into a process exit status.
func Execute() error {
	ctx := context.Background()

	cmd, err := newRootCmd().ExecuteContextC(ctx)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	var logger logging.Logger = logging.NewLogger(logging.DefaultConfig())
	if cmd != nil {
		if s, ok := lookupSession(cmd); ok {
			logger = s.logger
		}
	}
	kerrors.NewErrorHandler(logger).Handle(ctx, err)

	return err
}

// ExitCode maps an error from Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	return ExitCodeError
}
