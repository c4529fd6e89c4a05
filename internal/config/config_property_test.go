//go:build property
// +build property

package config

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestMergeProperties tests the layering rules of DeepMerge
func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: keys absent from the override keep their value
	properties.Property("untouched keys survive", prop.ForAll(
		func(entry, staticPath string) bool {
			dst := map[string]any{
				"webpack": map[string]any{"entry": entry, "plugins": []any{}},
			}
			src := map[string]any{
				"webpack": map[string]any{"staticPath": staticPath},
			}

			merged := DeepMerge(dst, src)["webpack"].(map[string]any)
			return merged["entry"] == entry &&
				reflect.DeepEqual(merged["plugins"], []any{}) &&
				merged["staticPath"] == staticPath
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: the later layer wins for the same key
	properties.Property("override wins", prop.ForAll(
		func(defaultDir, fileDir, cliDir string) bool {
			layered := DeepMerge(map[string]any{"sourceDir": defaultDir}, map[string]any{"sourceDir": fileDir})
			layered = DeepMerge(layered, map[string]any{"sourceDir": cliDir})
			return layered["sourceDir"] == cliDir
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.Identifier(),
	))

	// Property: appending concatenates in layer order
	properties.Property("append concatenates", prop.ForAll(
		func(a, b []string) bool {
			merged := DeepMerge(
				map[string]any{"jest": map[string]any{"roots": toAny(a)}},
				map[string]any{"jest": map[string]any{"roots": toAny(b)}},
				"jest.roots",
			)
			got := merged["jest"].(map[string]any)["roots"].([]any)
			return reflect.DeepEqual(got, append(toAny(a), toAny(b)...))
		},
		gen.SliceOf(gen.Identifier()),
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}

// TestConfigRoundTripProperties tests that the published form decodes back
// to the same Config
func TestConfigRoundTripProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("json round trip", prop.ForAll(
		func(sourceDir string, port int, typescript bool, extraKey, extraValue string) bool {
			cfg := DefaultConfig()
			cfg.SourceDir = sourceDir
			cfg.TypeScript = typescript
			cfg.Webpack.DevServer.Port = port
			cfg.Extra = map[string]any{"x" + extraKey: extraValue}
			cfg.deriveFrom("/project", "")

			data, err := json.Marshal(cfg)
			if err != nil {
				return false
			}
			var back Config
			if err := json.Unmarshal(data, &back); err != nil {
				return false
			}
			return reflect.DeepEqual(*cfg, back)
		},
		gen.Identifier(),
		gen.IntRange(0, 65535),
		gen.Bool(),
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func toAny(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
