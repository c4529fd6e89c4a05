// Package runner launches the external tools kiln orchestrates.
//
// A tool is looked up in the project's dependency directory first, then in
// kiln's own install directory, then on PATH. It runs at the project root
// with the published configuration in its environment.
package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"dario.cat/mergo"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/locator"
	"github.com/conneroisu/kiln/internal/logging"
	"github.com/conneroisu/kiln/internal/validation"
)

// Options configures a Runner. Zero fields take the process defaults:
// the standard streams and the directory of the running executable.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// InstallDir is kiln's own install directory, searched after the
	// project root.
	InstallDir string
	// Package names the dependency owning the binary, enabling the
	// package's own bin directory as a candidate.
	Package string
	// Env is appended to the inherited environment.
	Env []string
}

// Runner runs binaries for one project.
type Runner struct {
	cfg      *config.Config
	loc      *locator.Locator
	logger   logging.Logger
	opts     Options
	lookPath func(string) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithOptions sets the I/O and lookup options.
func WithOptions(opts Options) Option {
	return func(r *Runner) {
		r.opts = opts
	}
}

// WithLocator sets the filesystem probe used for binary lookup.
func WithLocator(loc *locator.Locator) Option {
	return func(r *Runner) {
		r.loc = loc
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithLookPath replaces the PATH fallback.
func WithLookPath(lookPath func(string) (string, error)) Option {
	return func(r *Runner) {
		r.lookPath = lookPath
	}
}

// New creates a Runner for the project described by cfg.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:      cfg,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}

	var defaults Options
	if dir, err := locator.InstallDir(); err == nil {
		defaults.InstallDir = dir
	}
	if err := mergo.Merge(&r.opts, defaults); err != nil {
		return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot apply runner defaults", err)
	}
	if r.opts.Stdin == nil {
		r.opts.Stdin = os.Stdin
	}
	if r.opts.Stdout == nil {
		r.opts.Stdout = os.Stdout
	}
	if r.opts.Stderr == nil {
		r.opts.Stderr = os.Stderr
	}

	if r.loc == nil {
		r.loc = locator.New(nil)
	}
	if r.logger == nil {
		r.logger = logging.NewNopLogger()
	}
	r.logger = r.logger.WithComponent("runner")

	return r, nil
}

// Which returns the path Run would execute for name.
func (r *Runner) Which(name string) (locator.BinaryLocation, error) {
	if err := validation.ValidateBinaryName(name); err != nil {
		return locator.BinaryLocation{Name: name},
			kerrors.NewValidationError(kerrors.ErrCodeValidationFailed, err.Error()).WithContext("binary", name)
	}

	loc := r.loc.ResolveBinary(name, r.opts.Package, r.cfg.Root, r.opts.InstallDir)
	if loc.Found {
		return loc, nil
	}

	if path, err := r.lookPath(name); err == nil {
		loc.Path = path
		loc.Found = true
		return loc, nil
	}

	return loc, kerrors.ErrBinaryNotFound(name).WithContext("candidates", loc.Candidates)
}

// Run executes binary with args at the project root and waits for it.
// The child's exit status is returned as an *exec.ExitError.
func (r *Runner) Run(ctx context.Context, binary string, args ...string) error {
	for _, arg := range args {
		if err := validation.ValidateArgument(arg); err != nil {
			return kerrors.NewValidationError(kerrors.ErrCodeValidationFailed,
				fmt.Sprintf("invalid argument '%s': %v", arg, err))
		}
	}

	loc, err := r.Which(binary)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, loc.Path, args...)
	cmd.Dir = r.cfg.Root
	cmd.Env = r.environ()
	cmd.Stdin = r.opts.Stdin
	cmd.Stdout = r.opts.Stdout
	cmd.Stderr = r.opts.Stderr

	r.logger.Debug(ctx, "Running tool", "binary", loc.Path, "args", args, "dir", cmd.Dir)
	done := logging.StartOperation(r.logger, "run "+binary)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%s interrupted: %w", binary, ctx.Err())
		}
		done.EndWithError(ctx, err)
		return err
	}

	done.End(ctx)
	return nil
}

// environ is the inherited environment, which carries the configuration
// published by the store, plus the extra variables from Options.
func (r *Runner) environ() []string {
	return append(os.Environ(), r.opts.Env...)
}
