package config

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/spf13/afero"

	kerrors "github.com/conneroisu/kiln/internal/errors"
)

// TSConfigFile is the project file of the TypeScript toolchain.
const TSConfigFile = "tsconfig.json"

// defaultTSConfig is the minimal project file written when one is missing.
func defaultTSConfig(cfg *Config) map[string]any {
	return map[string]any{
		"compilerOptions": map[string]any{
			"target":           "es2017",
			"module":           "esnext",
			"moduleResolution": "node",
			"jsx":              "react",
			"strict":           true,
			"esModuleInterop":  true,
			"skipLibCheck":     true,
			"outDir":           filepath.ToSlash(cfg.OutputDir),
			"baseUrl":          ".",
		},
		"include": []string{filepath.ToSlash(cfg.SourceDir)},
	}
}

// ValidateTypedProjectSetup makes sure a TypeScript project has its
// tsconfig.json at the project root (Config.Root, not the source root
// Config.SourcePath), writing a minimal one that includes SourceDir when
// it is missing. It does not look inside an existing file. created reports
// whether a file was written; a failed write is an I/O error.
func (s *Store) ValidateTypedProjectSetup(ctx context.Context) (created bool, err error) {
	cfg := s.cfg
	if !cfg.TypeScript {
		return false, nil
	}

	path := filepath.Join(cfg.Root, TSConfigFile)
	if s.loc.Exists(path) {
		return false, nil
	}

	data, err := json.MarshalIndent(defaultTSConfig(cfg), "", "  ")
	if err != nil {
		return false, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot render "+TSConfigFile, err)
	}

	fs := s.loc.Fs()
	if err := fs.MkdirAll(cfg.Root, 0o755); err != nil {
		return false, kerrors.WrapIO(err, kerrors.ErrCodeToolchainWrite, "cannot create project root").WithFile(cfg.Root)
	}
	if err := afero.WriteFile(fs, path, append(data, '\n'), 0o644); err != nil {
		return false, kerrors.WrapIO(err, kerrors.ErrCodeToolchainWrite, "cannot write "+TSConfigFile).WithFile(path)
	}

	s.logger.Info(ctx, "Created default "+TSConfigFile, "file", path)
	return true, nil
}
