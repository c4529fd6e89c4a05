// Package config provides kiln's configuration store.
//
// A project configuration is layered: built-in defaults, then the
// project's configuration file, then command-line overrides, each merged
// over the previous one with the deep-merge rule of this package (nested
// objects merge key-wise, arrays and scalars are replaced). The merged
// result is decoded into a typed Config; keys the schema does not know are
// carried opaquely in the Extra maps.
//
// The Store owns the one live Config of a command invocation and is the
// only writer of the KILN_CONFIG environment variable, which carries the
// JSON form of that Config to child processes.
package config

import (
	"encoding/json"
	"path/filepath"
)

// EnvVar is the environment variable carrying the published Config.
const EnvVar = "KILN_CONFIG"

type Config struct {
	SourceDir  string        `mapstructure:"sourceDir" json:"sourceDir"`
	OutputDir  string        `mapstructure:"outputDir" json:"outputDir"`
	TypeScript bool          `mapstructure:"typescript" json:"typescript"`
	Webpack    WebpackConfig `mapstructure:"webpack" json:"webpack"`
	Jest       JestConfig    `mapstructure:"jest" json:"jest"`
	Lint       LintConfig    `mapstructure:"lint" json:"lint"`
	AI         AIConfig      `mapstructure:"ai" json:"ai"`

	// Derived by the Store after every merge.
	Root       string `mapstructure:"root" json:"root,omitempty"`
	SourcePath string `mapstructure:"sourcePath" json:"sourcePath,omitempty"`
	OutputPath string `mapstructure:"outputPath" json:"outputPath,omitempty"`
	ConfigFile string `mapstructure:"configFile" json:"configFile,omitempty"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

type WebpackConfig struct {
	Entry      string          `mapstructure:"entry" json:"entry"`
	PublicPath string          `mapstructure:"publicPath" json:"publicPath"`
	StaticPath string          `mapstructure:"staticPath" json:"staticPath"`
	Plugins    []string        `mapstructure:"plugins" json:"plugins"`
	DevServer  DevServerConfig `mapstructure:"devServer" json:"devServer"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

type DevServerConfig struct {
	Host string `mapstructure:"host" json:"host"`
	Port int    `mapstructure:"port" json:"port"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

type JestConfig struct {
	TestEnvironment      string   `mapstructure:"testEnvironment" json:"testEnvironment"`
	Roots                []string `mapstructure:"roots" json:"roots"`
	SetupFiles           []string `mapstructure:"setupFiles" json:"setupFiles"`
	ModuleFileExtensions []string `mapstructure:"moduleFileExtensions" json:"moduleFileExtensions"`
	TestSequencer        string   `mapstructure:"testSequencer" json:"testSequencer"`
	Coverage             bool     `mapstructure:"coverage" json:"coverage"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

type LintConfig struct {
	Extends []string `mapstructure:"extends" json:"extends"`
	Fix     bool     `mapstructure:"fix" json:"fix"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

// AIConfig configures the optional AI-assist integration. APIKeyEnv names
// the environment variable holding the key; the key itself never lives in
// configuration.
type AIConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Provider  string `mapstructure:"provider" json:"provider"`
	Model     string `mapstructure:"model" json:"model"`
	APIKeyEnv string `mapstructure:"apiKeyEnv" json:"apiKeyEnv"`

	Extra map[string]any `mapstructure:",remain" json:"-"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceDir:  "src",
		OutputDir:  "dist",
		TypeScript: false,
		Webpack: WebpackConfig{
			Entry:      "./src/index.js",
			PublicPath: "/",
			Plugins:    []string{},
			DevServer: DevServerConfig{
				Host: "localhost",
				Port: 8080,
			},
		},
		Jest: JestConfig{
			TestEnvironment:      "node",
			Roots:                []string{},
			SetupFiles:           []string{},
			ModuleFileExtensions: []string{".js", ".jsx", ".ts", ".tsx", ".json"},
		},
		Lint: LintConfig{
			Extends: []string{},
		},
		AI: AIConfig{
			Provider:  "anthropic",
			APIKeyEnv: "ANTHROPIC_API_KEY",
		},
	}
}

// deriveFrom recomputes the derived fields for a project rooted at root.
func (c *Config) deriveFrom(root, configFile string) {
	c.Root = filepath.Clean(root)
	c.SourcePath = absUnder(c.Root, c.SourceDir)
	c.OutputPath = absUnder(c.Root, c.OutputDir)
	c.ConfigFile = configFile
}

func absUnder(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// ToMap returns the Config in its published shape: the configuration-file
// layout with opaque keys inlined and derived fields added.
func (c *Config) ToMap() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

type (
	configAlias    Config
	webpackAlias   WebpackConfig
	devServerAlias DevServerConfig
	jestAlias      JestConfig
	lintAlias      LintConfig
	aiAlias        AIConfig
)

// MarshalJSON inlines Extra keys next to the typed ones.
func (c Config) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(configAlias(c))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, c.Extra)
}

// UnmarshalJSON decodes the published shape, routing unknown keys to Extra.
func (c *Config) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	decoded, err := decode(m)
	if err != nil {
		return err
	}
	*c = *decoded
	return nil
}

func (w WebpackConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(webpackAlias(w))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, w.Extra)
}

func (d DevServerConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(devServerAlias(d))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, d.Extra)
}

func (j JestConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(jestAlias(j))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, j.Extra)
}

func (l LintConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(lintAlias(l))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, l.Extra)
}

func (a AIConfig) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(aiAlias(a))
	if err != nil {
		return nil, err
	}
	return inlineExtra(data, a.Extra)
}

// inlineExtra adds extra's keys to the JSON object in data. Typed keys win.
func inlineExtra(data []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, taken := m[k]; !taken {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
