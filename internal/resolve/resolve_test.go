package resolve

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/locator"
)

func newTestResolver(t *testing.T, workDir string, files ...string) *Resolver {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(workDir, 0o755))
	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte("module.exports = {}\n"), 0o644))
	}
	return New(WithLocator(locator.New(fs)), WithWorkingDir(workDir))
}

func writeFile(t *testing.T, r *Resolver, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(r.loc.Fs(), path, []byte(content), 0o644))
}

func TestResolveEmpty(t *testing.T) {
	r := newTestResolver(t, "/work", "/work/index.js")

	for _, ctx := range []Context{{}, {BaseDirectory: "/work"}, {StrictProbe: true}} {
		res, err := r.Resolve("", ctx)
		require.NoError(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
		assert.False(t, res.Found())
	}
}

func TestResolveAbsolute(t *testing.T) {
	r := newTestResolver(t, "/work",
		"/abs/path/file.ts",
		"/lib/pkg/index.js",
	)
	ts := Context{Extensions: []string{".ts"}}

	res, err := r.Resolve("/abs/path/file.ts", ts)
	require.NoError(t, err)
	assert.Equal(t, Result{Path: "/abs/path/file.ts", Status: StatusResolved}, res)

	res, err = r.Resolve("/abs/path/missing.ts", ts)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status, "a missing file with extension is not echoed back")

	res, err = r.Resolve("/lib/pkg", Context{})
	require.NoError(t, err)
	assert.Equal(t, resolved("/lib/pkg/index.js"), res)
}

func TestResolveRelativeProbing(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		specifier string
		ctx       Context
		want      Result
	}{
		{
			name:      "index found after exhausting earlier extensions",
			files:     []string{"/d/sibling/index.js"},
			specifier: "./sibling",
			ctx:       Context{BaseDirectory: "/d", Extensions: []string{".ts", ".js"}},
			want:      resolved("/d/sibling/index.js"),
		},
		{
			name:      "index of an earlier extension beats a later file",
			files:     []string{"/d/mod.js", "/d/mod/index.ts"},
			specifier: "./mod",
			ctx:       Context{BaseDirectory: "/d", Extensions: []string{".ts", ".js"}},
			want:      resolved("/d/mod/index.ts"),
		},
		{
			name:      "file beats index for the same extension",
			files:     []string{"/d/mod.ts", "/d/mod/index.ts"},
			specifier: "./mod",
			ctx:       Context{BaseDirectory: "/d", Extensions: []string{".ts", ".js"}},
			want:      resolved("/d/mod.ts"),
		},
		{
			name:      "parent relative",
			files:     []string{"/d/shared.tsx"},
			specifier: "../shared",
			ctx:       Context{BaseDirectory: "/d/sub"},
			want:      resolved("/d/shared.tsx"),
		},
		{
			name:      "known extension is joined without probing",
			specifier: "./not-there.ts",
			ctx:       Context{BaseDirectory: "/d"},
			want:      resolved("/d/not-there.ts"),
		},
		{
			name:      "parent relative with extension",
			specifier: "../up.js",
			ctx:       Context{BaseDirectory: "/d/sub"},
			want:      resolved("/d/up.js"),
		},
		{
			name:      "base directory relative to the working directory",
			files:     []string{"/work/app/util.js"},
			specifier: "./util",
			ctx:       Context{BaseDirectory: "app"},
			want:      resolved("/work/app/util.js"),
		},
		{
			name:      "default base directory is the working directory",
			files:     []string{"/work/util.json"},
			specifier: "./util",
			want:      resolved("/work/util.json"),
		},
		{
			name:      "dot dot probes the parent index",
			files:     []string{"/d/index.js"},
			specifier: "..",
			ctx:       Context{BaseDirectory: "/d/sub"},
			want:      resolved("/d/index.js"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver(t, "/work", tt.files...)

			res, err := r.Resolve(tt.specifier, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestResolveExhaustedProbing(t *testing.T) {
	r := newTestResolver(t, "/work", "/d/other.js")

	res, err := r.Resolve("./missing", Context{BaseDirectory: "/d"})
	require.NoError(t, err)
	assert.Equal(t, Result{Path: "./missing", Status: StatusPassthrough}, res)
	assert.False(t, res.Found())

	res, err = r.Resolve("./missing", Context{BaseDirectory: "/d", StrictProbe: true})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)

	res, err = r.Resolve("jest-sequencer-./missing", Context{BaseDirectory: "/d"})
	require.NoError(t, err)
	assert.Equal(t, "jest-sequencer-./missing", res.Path, "passthrough echoes the original specifier")
}

func TestResolvePrefixStripping(t *testing.T) {
	r := newTestResolver(t, "/work",
		"/work/node_modules/foo/index.js",
		"/d/local.ts",
	)

	specs := []struct {
		name string
		ctx  Context
	}{
		{"foo", Context{}},
		{"./local", Context{BaseDirectory: "/d"}},
		{"missing", Context{}},
	}

	for _, s := range specs {
		plain, err := r.Resolve(s.name, s.ctx)
		require.NoError(t, err)
		prefixed, err := r.Resolve(SequencerPrefix+s.name, s.ctx)
		require.NoError(t, err)
		assert.Equal(t, plain, prefixed, s.name)
	}

	res, err := r.Resolve(SequencerPrefix, Context{})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status)

	custom := New(WithLocator(r.loc), WithWorkingDir("/work"), WithPrefixes("kiln-plugin-"))
	res, err = custom.Resolve("kiln-plugin-foo", Context{})
	require.NoError(t, err)
	assert.Equal(t, resolved("/work/node_modules/foo/index.js"), res)
}

func TestResolveBare(t *testing.T) {
	r := newTestResolver(t, "/work/app",
		"/work/node_modules/lodash.js",
		"/work/node_modules/lodash/fp.js",
		"/work/node_modules/dup/index.js",
		"/tool/node_modules/dup/index.js",
		"/tool/node_modules/only-tool/index.ts",
		"/work/node_modules/main-pkg/lib/entry.js",
		"/work/node_modules/main-noext/dist/main.js",
		"/work/node_modules/main-dir/build/index.js",
		"/work/node_modules/bad-manifest/index.js",
		"/work/app/node_modules/nearest/index.js",
		"/work/node_modules/nearest/index.js",
	)
	writeFile(t, r, "/work/node_modules/main-pkg/package.json", `{"name": "main-pkg", "main": "lib/entry.js"}`)
	writeFile(t, r, "/work/node_modules/main-noext/package.json", `{"main": "dist/main"}`)
	writeFile(t, r, "/work/node_modules/main-dir/package.json", `{"main": "build"}`)
	writeFile(t, r, "/work/node_modules/bad-manifest/package.json", `{"main": `)

	ctx := Context{SearchRoots: []string{"/tool"}}

	tests := []struct {
		specifier string
		want      Result
	}{
		{"lodash", resolved("/work/node_modules/lodash.js")},
		{"lodash/fp", resolved("/work/node_modules/lodash/fp.js")},
		{"dup", resolved("/work/node_modules/dup/index.js")},
		{"only-tool", resolved("/tool/node_modules/only-tool/index.ts")},
		{"main-pkg", resolved("/work/node_modules/main-pkg/lib/entry.js")},
		{"main-noext", resolved("/work/node_modules/main-noext/dist/main.js")},
		{"main-dir", resolved("/work/node_modules/main-dir/build/index.js")},
		{"bad-manifest", resolved("/work/node_modules/bad-manifest/index.js")},
		{"nearest", resolved("/work/app/node_modules/nearest/index.js")},
		{"nowhere", notFound},
	}

	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			res, err := r.Resolve(tt.specifier, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}

	res, err := r.Resolve("only-tool", Context{})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, res.Status, "search roots are opt-in")
}

func TestResolveMalformed(t *testing.T) {
	r := newTestResolver(t, "/work")

	for _, specifier := range []string{"foo\x00bar", "./\xff\xfe"} {
		res, err := r.Resolve(specifier, Context{})
		require.Error(t, err)
		assert.Equal(t, StatusNotFound, res.Status)
		assert.True(t, kerrors.IsResolveError(err))
		assert.True(t, errors.Is(err, kerrors.NewResolveError(kerrors.ErrCodeMalformedSpecifier, "")))
	}
}

func TestResolveDoesNotMutateContext(t *testing.T) {
	r := newTestResolver(t, "/work", "/work/a.js")
	ctx := Context{}

	_, err := r.Resolve("./a", ctx)
	require.NoError(t, err)
	assert.Equal(t, Context{}, ctx)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "resolved", StatusResolved.String())
	assert.Equal(t, "not found", StatusNotFound.String())
	assert.Equal(t, "passthrough", StatusPassthrough.String())
}

func TestContextFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Jest.ModuleFileExtensions = []string{"ts", ".js", "", "."}
	cfg.Root = "/proj"
	cfg.SourcePath = "/proj/src"

	ctx := ContextFromConfig(cfg, "/opt/kiln")
	assert.Equal(t, Context{
		BaseDirectory: "/proj",
		Extensions:    []string{".ts", ".js"},
		SearchRoots:   []string{"/opt/kiln", "/proj/src"},
	}, ctx)

	ctx = ContextFromConfig(cfg, "")
	assert.Equal(t, []string{"/proj/src"}, ctx.SearchRoots)
}

func TestNormalizeExtensions(t *testing.T) {
	assert.Equal(t, []string{".ts", ".tsx", ".js"}, NormalizeExtensions([]string{"ts", ".tsx", "", ".", "js"}))
	assert.Empty(t, NormalizeExtensions(nil))
}
