package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
)

// optionKeys maps option flags to configuration paths. Each flag can also
// be given as KILN_<FLAG>, dashes replaced by underscores.
var optionKeys = map[string]string{
	"source-dir": "sourceDir",
	"output-dir": "outputDir",
	"typescript": "typescript",
}

// collectOverrides builds the command-line configuration layer: option
// flags and their environment variables first, then --set values. Only
// options that were actually given appear in the result.
func collectOverrides(flags *pflag.FlagSet, set []string) (map[string]any, error) {
	v := viper.New()
	v.SetEnvPrefix("KILN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	names := make([]string, 0, len(optionKeys))
	for name := range optionKeys {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if flag := flags.Lookup(name); flag != nil {
			if err := v.BindPFlag(name, flag); err != nil {
				return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot bind flag "+name, err)
			}
		}
		if err := v.BindEnv(name); err != nil {
			return nil, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot bind environment for "+name, err)
		}
	}

	overrides := make(map[string]any)
	for _, name := range names {
		if v.IsSet(name) {
			config.SetByPath(overrides, optionKeys[name], v.Get(name))
		}
	}

	for _, assignment := range set {
		key, value, err := parseAssignment(assignment)
		if err != nil {
			return nil, err
		}
		config.SetByPath(overrides, key, value)
	}

	return overrides, nil
}

// parseAssignment splits key.path=value. The value is read as a YAML
// scalar or flow collection, so numbers, booleans and [a, b] lists keep
// their type; anything unparsable stays a string.
func parseAssignment(assignment string) (string, any, error) {
	key, raw, ok := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") || strings.Contains(key, "..") {
		return "", nil, kerrors.NewValidationError(kerrors.ErrCodeValidationFailed,
			fmt.Sprintf("invalid --set value %q, expected key.path=value", assignment))
	}

	if raw == "" {
		return key, "", nil
	}

	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		return key, raw, nil
	}
	return key, value, nil
}
