package resolve

import (
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/conneroisu/kiln/internal/locator"
)

// strategy is one step of the bare-specifier fallback chain.
type strategy struct {
	root string
}

// strategies lists the lookup roots for bare specifiers: the working
// directory first, then each search root in order. Repeated roots are
// dropped.
func (r *Resolver) strategies(ctx Context) []strategy {
	roots := make([]strategy, 0, len(ctx.SearchRoots)+1)
	seen := make(map[string]bool, len(ctx.SearchRoots)+1)

	add := func(root string) {
		if root == "" {
			return
		}
		root = filepath.Clean(root)
		if seen[root] {
			return
		}
		seen[root] = true
		roots = append(roots, strategy{root: root})
	}

	if cwd, err := r.getwd(); err == nil {
		add(cwd)
	}
	for _, root := range ctx.SearchRoots {
		add(root)
	}

	return roots
}

func (r *Resolver) resolveBare(name string, ctx Context) Result {
	for _, s := range r.strategies(ctx) {
		if res := r.lookupDependency(s.root, name, ctx.Extensions); res.Found() {
			return res
		}
	}
	return notFound
}

// lookupDependency walks up from root checking each dependency directory
// for name, the way package-aware tooling locates installed modules.
func (r *Resolver) lookupDependency(root, name string, exts []string) Result {
	dir, err := filepath.Abs(root)
	if err != nil {
		return notFound
	}

	for {
		if filepath.Base(dir) != locator.DependencyDir {
			candidate := filepath.Join(dir, locator.DependencyDir, name)
			if p, ok := r.loadAsFile(candidate, exts); ok {
				return resolved(p)
			}
			if p, ok := r.loadAsDirectory(candidate, exts); ok {
				return resolved(p)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return notFound
		}
		dir = parent
	}
}

func (r *Resolver) loadAsFile(path string, exts []string) (string, bool) {
	if r.loc.IsFile(path) {
		return path, true
	}
	return r.loc.ProbeExtensions(path, exts)
}

// loadAsDirectory honors the package manifest's "main" entry before
// falling back to the directory index.
func (r *Resolver) loadAsDirectory(dir string, exts []string) (string, bool) {
	if !r.loc.IsDir(dir) {
		return "", false
	}

	if main := r.packageMain(dir); main != "" {
		target := filepath.Join(dir, main)
		if p, ok := r.loadAsFile(target, exts); ok {
			return p, true
		}
		if p, ok := r.loc.ProbeExtensions(filepath.Join(target, "index"), exts); ok {
			return p, true
		}
	}

	return r.loc.ProbeExtensions(filepath.Join(dir, "index"), exts)
}

func (r *Resolver) packageMain(dir string) string {
	data, err := afero.ReadFile(r.loc.Fs(), filepath.Join(dir, "package.json"))
	if err != nil || !gjson.ValidBytes(data) {
		return ""
	}
	return gjson.GetBytes(data, "main").String()
}
