package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/locator"
	"github.com/conneroisu/kiln/internal/logging"
	"github.com/conneroisu/kiln/internal/resolve"
)

// session is the state of one kiln invocation: the logger and the parsed
// project configuration. It travels in the command's context.
type session struct {
	logger logging.Logger
	store  *config.Store
	report *config.Report
	// workDir is the absolute --cwd value, "" for the process directory.
	workDir string
}

type sessionKey struct{}

// loadSession parses the project configuration for cmd and attaches the
// session to its context.
func loadSession(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(opts.logLevel, cmd.ErrOrStderr())
	if err != nil {
		return kerrors.NewValidationError(kerrors.ErrCodeValidationFailed, err.Error())
	}

	overrides, err := collectOverrides(cmd.Flags(), opts.set)
	if err != nil {
		return err
	}

	workDir := ""
	storeOpts := []config.StoreOption{config.WithLogger(logger)}
	if opts.workDir != "" {
		if workDir, err = filepath.Abs(opts.workDir); err != nil {
			return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot resolve working directory", err)
		}
		storeOpts = append(storeOpts, config.WithWorkingDir(workDir))
	}
	store, err := config.NewStore(storeOpts...)
	if err != nil {
		return err
	}

	report, err := store.Parse(ctx, config.ParseOptions{
		ConfigFile: opts.configFile,
		Root:       opts.root,
		Overrides:  overrides,
		Append:     opts.appendPaths,
	})
	if err != nil {
		return err
	}
	if report.ConfigFile != "" {
		logger.Debug(ctx, "Using config file", "file", report.ConfigFile)
	}

	cmd.SetContext(context.WithValue(ctx, sessionKey{}, &session{
		logger:  logger,
		store:   store,
		report:  report,
		workDir: workDir,
	}))
	return nil
}

// resolver returns a resolver working from the session's directory.
// findInstallDir locates kiln's own install directory.
var findInstallDir = locator.InstallDir

// installDir returns kiln's install directory, or "" when it cannot be
// determined. Bare specifiers then skip that search root.
func (s *session) installDir(ctx context.Context) string {
	dir, err := findInstallDir()
	if err != nil {
		s.logger.Debug(ctx, "Install directory unavailable", "error", err)
		return ""
	}
	return dir
}

func (s *session) resolver() *resolve.Resolver {
	if s.workDir == "" {
		return resolve.New()
	}
	return resolve.New(resolve.WithWorkingDir(s.workDir))
}

func lookupSession(cmd *cobra.Command) (*session, bool) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionKey{}).(*session)
	return s, ok
}

func sessionFrom(cmd *cobra.Command) (*session, error) {
	s, ok := lookupSession(cmd)
	if !ok {
		return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError,
			fmt.Sprintf("command %q ran without a configuration", cmd.Name()), nil)
	}
	return s, nil
}

// newLogger builds the logger from KILN_LOG_* settings; a non-empty level
// overrides KILN_LOG_LEVEL.
func newLogger(level string, out io.Writer) (logging.Logger, error) {
	cfg, err := logging.ConfigFromEnv("KILN_")
	if err != nil {
		return nil, err
	}

	if level != "" {
		parsed, err := logging.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = parsed
	}
	cfg.Output = out

	return logging.NewLogger(cfg).WithComponent("cli"), nil
}
