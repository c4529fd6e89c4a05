package resolve

import (
	"github.com/conneroisu/kiln/internal/config"
)

// ContextFromConfig builds the Context used when handing a project to the
// test runner: based at the project root, probing the configured module
// file extensions, and looking up bare specifiers in the tool's install
// directory and then in the project's source tree.
func ContextFromConfig(cfg *config.Config, installDir string) Context {
	var roots []string
	for _, root := range []string{installDir, cfg.SourcePath} {
		if root != "" {
			roots = append(roots, root)
		}
	}

	return Context{
		BaseDirectory: cfg.Root,
		Extensions:    NormalizeExtensions(cfg.Jest.ModuleFileExtensions),
		SearchRoots:   roots,
	}
}

// NormalizeExtensions gives every extension a leading dot and drops empty
// entries, keeping the order.
func NormalizeExtensions(exts []string) []string {
	normalized := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext == "" || ext == "." {
			continue
		}
		normalized = append(normalized, config.NormalizeExtension(ext))
	}
	return normalized
}
