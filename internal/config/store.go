package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/locator"
	"github.com/conneroisu/kiln/internal/logging"
)

// Store owns the Config of one command invocation.
type Store struct {
	cfg     *Config
	raw     map[string]any
	loc     *locator.Locator
	logger  logging.Logger
	workDir string
	envVar  string

	root       string
	configFile string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithWorkingDir sets the directory the configuration search starts from.
func WithWorkingDir(dir string) StoreOption {
	return func(s *Store) {
		s.workDir = dir
	}
}

// WithLogger sets the logger used for warnings.
func WithLogger(logger logging.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithFs sets the filesystem the store reads and repairs.
func WithFs(fs afero.Fs) StoreOption {
	return func(s *Store) {
		s.loc = locator.New(fs)
	}
}

// WithEnvVar overrides the environment variable Publish writes.
func WithEnvVar(name string) StoreOption {
	return func(s *Store) {
		s.envVar = name
	}
}

// NewStore creates a Store holding the built-in defaults.
func NewStore(opts ...StoreOption) (*Store, error) {
	s := &Store{
		cfg:    &Config{},
		envVar: EnvVar,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.loc == nil {
		s.loc = locator.New(nil)
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.WithComponent("config")

	if s.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot determine working directory", err)
		}
		s.workDir = wd
	}
	abs, err := filepath.Abs(s.workDir)
	if err != nil {
		return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot resolve working directory", err)
	}
	s.workDir = abs

	if err := s.reset(); err != nil {
		return nil, err
	}

	return s, nil
}

// Config returns the live configuration. The pointer stays valid for the
// life of the store; merges update it in place.
func (s *Store) Config() *Config {
	return s.cfg
}

// Settings returns a copy of the merged configuration map.
func (s *Store) Settings() map[string]any {
	return cloneMap(s.raw)
}

// ParseOptions are the inputs of one Parse call.
type ParseOptions struct {
	// ConfigFile is an explicit configuration file, relative to the
	// working directory. It disables the search.
	ConfigFile string
	// Root limits the search to the working directory.
	Root bool
	// Overrides are the command-line options, merged last.
	Overrides map[string]any
	// Append lists dot-separated paths whose arrays in Overrides are
	// concatenated instead of replacing.
	Append []string
}

// Report describes what Parse loaded.
type Report struct {
	ConfigFile string
	Warnings   []error
}

// Parse rebuilds the configuration: defaults, then the configuration file
// (if any), then opts.Overrides. The result is published to the
// environment. A missing or invalid configuration file is not an error;
// it leaves the defaults in place and is reported as a warning. Calling
// Parse again with the same inputs yields an equal Config.
func (s *Store) Parse(ctx context.Context, opts ParseOptions) (*Report, error) {
	report := &Report{}

	if err := s.reset(); err != nil {
		return report, err
	}

	if path, ok := s.locate(ctx, opts, report); ok {
		if err := s.loadFile(path); err != nil {
			s.logger.Warn(ctx, err, "Ignoring configuration file, using defaults", "file", path)
			report.Warnings = append(report.Warnings, err)
		} else {
			s.logger.Debug(ctx, "Loaded configuration file", "file", path)
			report.ConfigFile = path
		}
	}

	if len(opts.Overrides) > 0 || len(opts.Append) > 0 {
		if err := s.merge(opts.Overrides, opts.Append...); err != nil {
			return report, err
		}
	}

	if err := s.Publish(); err != nil {
		return report, err
	}

	return report, nil
}

// Merge merges override over the current configuration with the
// DeepMerge rule, re-derives the absolute paths and republishes the
// result. Arrays at appendPaths are concatenated. On error the
// configuration and its publication are left unchanged.
func (s *Store) Merge(override map[string]any, appendPaths ...string) error {
	if err := s.merge(override, appendPaths...); err != nil {
		return err
	}
	return s.Publish()
}

func (s *Store) merge(override map[string]any, appendPaths ...string) error {
	normalized, err := normalize(override)
	if err != nil {
		return kerrors.WrapConfig(err, kerrors.ErrCodeMergeFailed, "cannot merge configuration")
	}

	candidate := DeepMerge(cloneMap(s.raw), normalized, appendPaths...)
	decoded, err := decode(candidate)
	if err != nil {
		return kerrors.WrapConfig(err, kerrors.ErrCodeMergeFailed, "configuration does not match schema")
	}

	s.raw = candidate
	s.apply(decoded)
	return nil
}

// Publish writes the JSON form of the live Config to the store's
// environment variable.
func (s *Store) Publish() error {
	data, err := json.Marshal(s.cfg)
	if err != nil {
		return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot serialize configuration", err)
	}
	if err := os.Setenv(s.envVar, string(data)); err != nil {
		return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot publish configuration", err)
	}
	return nil
}

// FromEnv reads the Config published by a parent process.
func FromEnv() (*Config, error) {
	return FromEnvVar(EnvVar)
}

// FromEnvVar reads a Config published under name.
func FromEnvVar(name string) (*Config, error) {
	data, ok := os.LookupEnv(name)
	if !ok || data == "" {
		return nil, kerrors.NewConfigError(kerrors.ErrCodeConfigNotPublished,
			"no configuration published in "+name, nil)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, kerrors.WrapConfig(err, kerrors.ErrCodeConfigInvalid, "cannot decode published configuration")
	}
	return &cfg, nil
}

func (s *Store) reset() error {
	s.root = s.workDir
	s.configFile = ""

	defaults, err := DefaultConfig().ToMap()
	if err != nil {
		return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot build defaults", err)
	}
	s.raw = map[string]any{}
	return s.merge(defaults)
}

// locate finds the configuration file for opts. An explicit file that
// does not exist is reported and treated as absent.
func (s *Store) locate(ctx context.Context, opts ParseOptions, report *Report) (string, bool) {
	if opts.ConfigFile != "" {
		path := opts.ConfigFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(s.workDir, path)
		}
		if s.loc.IsFile(path) {
			return path, true
		}
		err := kerrors.NewConfigError(kerrors.ErrCodeConfigNotFound, "configuration file not found", nil).
			WithFile(path)
		s.logger.Warn(ctx, err, "Using defaults")
		report.Warnings = append(report.Warnings, err)
		return "", false
	}

	if opts.Root {
		return s.loc.FindIn(s.workDir, ConfigFileNames...)
	}
	return s.loc.FindUp(s.workDir, ConfigFileNames...)
}

// loadFile merges a configuration file. The project root moves to the
// file's directory only when the file is usable.
func (s *Store) loadFile(path string) error {
	m, err := readSource(s.loc.Fs(), path)
	if err != nil {
		return err
	}

	previousRoot, previousFile := s.root, s.configFile
	s.root, s.configFile = filepath.Dir(path), path
	if err := s.merge(m); err != nil {
		s.root, s.configFile = previousRoot, previousFile
		return kerrors.Wrap(err, kerrors.ErrorTypeConfig, kerrors.ErrCodeConfigInvalid, "invalid configuration file").
			WithFile(path)
	}
	return nil
}

func (s *Store) apply(decoded *Config) {
	decoded.deriveFrom(s.root, s.configFile)
	*s.cfg = *decoded
}
