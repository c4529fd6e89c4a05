package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	kerrors "github.com/conneroisu/kiln/internal/errors"
)

// ConfigFileNames are the recognized configuration files, in priority
// order within one directory.
var ConfigFileNames = []string{
	"kiln.config.yaml",
	"kiln.config.yml",
	"kiln.config.json",
	"kiln.config.toml",
	".kilnrc",
}

// readSource reads and decodes a configuration file. The format follows
// the extension; files without one are read as YAML, which also accepts
// JSON. An empty file is an empty configuration.
func readSource(fs afero.Fs, path string) (map[string]any, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, kerrors.WrapConfig(err, kerrors.ErrCodeConfigNotFound, "cannot read configuration file").
			WithFile(path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]any{}, nil
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".toml":
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		if m != nil {
			raw = m
		}
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, kerrors.WrapConfig(err, kerrors.ErrCodeConfigInvalid, "cannot parse configuration file").
			WithFile(path)
	}

	if raw == nil {
		return map[string]any{}, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, kerrors.NewConfigError(kerrors.ErrCodeConfigInvalid,
			fmt.Sprintf("configuration must be an object, got %T", raw), nil).
			WithFile(path)
	}

	normalized, err := normalize(m)
	if err != nil {
		return nil, kerrors.WrapConfig(err, kerrors.ErrCodeConfigInvalid, "unsupported value in configuration file").
			WithFile(path)
	}

	return normalized, nil
}
