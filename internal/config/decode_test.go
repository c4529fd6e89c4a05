package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDefaults(t *testing.T) {
	m, err := DefaultConfig().ToMap()
	require.NoError(t, err)

	cfg, err := decode(m)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDecodeWeakTypes(t *testing.T) {
	cfg, err := decode(map[string]any{
		"typescript": "true",
		"webpack": map[string]any{
			"devServer": map[string]any{"port": "3000"},
		},
	})
	require.NoError(t, err)
	assert.True(t, cfg.TypeScript)
	assert.Equal(t, 3000, cfg.Webpack.DevServer.Port)
}

func TestDecodeSchemaError(t *testing.T) {
	_, err := decode(map[string]any{"typescript": "definitely"})
	assert.Error(t, err)

	_, err = decode(map[string]any{"webpack": "not an object"})
	assert.Error(t, err)
}

func TestDecodeKeepsUnknownKeys(t *testing.T) {
	cfg, err := decode(map[string]any{
		"sourceDir": "lib",
		"babel":     map[string]any{"presets": []any{"env"}},
		"webpack": map[string]any{
			"entry":   "./lib/main.ts",
			"resolve": map[string]any{"alias": map[string]any{"@": "./lib"}},
		},
		"jest": map[string]any{"verbose": true},
	})
	require.NoError(t, err)

	assert.Equal(t, "lib", cfg.SourceDir)
	assert.Equal(t, map[string]any{"babel": map[string]any{"presets": []any{"env"}}}, cfg.Extra)
	assert.Equal(t, map[string]any{"resolve": map[string]any{"alias": map[string]any{"@": "./lib"}}}, cfg.Webpack.Extra)
	assert.Equal(t, map[string]any{"verbose": true}, cfg.Jest.Extra)
}

func TestDecodeKeepsNestedUnknownKeys(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		extra func(cfg *Config) map[string]any
		want  map[string]any
	}{
		{
			name:  "lint",
			input: map[string]any{"lint": map[string]any{"fix": true, "rules": map[string]any{"semi": "error"}}},
			extra: func(cfg *Config) map[string]any { return cfg.Lint.Extra },
			want:  map[string]any{"rules": map[string]any{"semi": "error"}},
		},
		{
			name:  "ai",
			input: map[string]any{"ai": map[string]any{"enabled": true, "temperature": 0.2}},
			extra: func(cfg *Config) map[string]any { return cfg.AI.Extra },
			want:  map[string]any{"temperature": 0.2},
		},
		{
			name: "devServer",
			input: map[string]any{"webpack": map[string]any{
				"devServer": map[string]any{"port": 3000, "hot": true},
			}},
			extra: func(cfg *Config) map[string]any { return cfg.Webpack.DevServer.Extra },
			want:  map[string]any{"hot": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.extra(cfg))

			m, err := cfg.ToMap()
			require.NoError(t, err)
			for key, value := range tt.want {
				path := tt.name + "." + key
				if tt.name == "devServer" {
					path = "webpack.devServer." + key
				}
				got, ok := GetByPath(m, path)
				require.True(t, ok, "published form lost %s", path)
				assert.Equal(t, value, got)
			}
		})
	}
}

func TestDecodeNilsEmptyNestedExtra(t *testing.T) {
	cfg, err := decode(map[string]any{"lint": map[string]any{"fix": true}})
	require.NoError(t, err)
	assert.Nil(t, cfg.Lint.Extra)
	assert.Nil(t, cfg.AI.Extra)
	assert.Nil(t, cfg.Webpack.DevServer.Extra)
}

func TestConfigJSONInlinesExtra(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extra = map[string]any{"babel": map[string]any{"presets": []any{"env"}}, "sourceDir": "ignored"}
	cfg.Webpack.Extra = map[string]any{"mode": "production"}

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "src", m["sourceDir"], "typed keys win over extra keys")
	assert.Contains(t, m, "babel")
	assert.Equal(t, "production", m["webpack"].(map[string]any)["mode"])
	assert.NotContains(t, m, "Extra")
	assert.NotContains(t, m, "root", "empty derived fields are omitted")
}

func TestConfigJSONRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extra = map[string]any{"babel": map[string]any{"presets": []any{"env"}}}
	cfg.Jest.Extra = map[string]any{"verbose": true}
	cfg.Lint.Extra = map[string]any{"rules": map[string]any{"semi": "error"}}
	cfg.AI.Extra = map[string]any{"temperature": 0.2}
	cfg.Webpack.DevServer.Extra = map[string]any{"hot": true}
	cfg.deriveFrom("/project", "/project/kiln.config.yaml")

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	var back Config
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *cfg, back)
}

func TestDeriveFrom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/var/build"
	cfg.deriveFrom("/project/./app", "")

	assert.Equal(t, "/project/app", cfg.Root)
	assert.Equal(t, "/project/app/src", cfg.SourcePath)
	assert.Equal(t, "/var/build", cfg.OutputPath)
	assert.Empty(t, cfg.ConfigFile)
}
