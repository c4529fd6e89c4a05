package locator

import (
	"path/filepath"
)

// BinaryLocation describes where a binary was looked for and where, if
// anywhere, it was found.
type BinaryLocation struct {
	Name       string
	Candidates []string
	Path       string
	Found      bool
}

// BinaryCandidates lists the expected install paths of name under each
// root, in order. For every root the shared .bin directory comes first,
// then the owning package's bin directory when pkg is set.
func BinaryCandidates(name, pkg string, roots ...string) []string {
	candidates := make([]string, 0, len(roots)*2)
	seen := make(map[string]bool, len(roots)*2)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}

	for _, root := range roots {
		if root == "" {
			continue
		}
		add(filepath.Join(root, DependencyDir, ".bin", name))
		if pkg != "" {
			add(filepath.Join(root, DependencyDir, pkg, "bin", name))
		}
	}

	return candidates
}

// ResolveBinary reports the first existing candidate from BinaryCandidates.
// Callers pass the project root before the tool's own install directory.
func (l *Locator) ResolveBinary(name, pkg string, roots ...string) BinaryLocation {
	loc := BinaryLocation{
		Name:       name,
		Candidates: BinaryCandidates(name, pkg, roots...),
	}

	for _, candidate := range loc.Candidates {
		if l.IsFile(candidate) {
			loc.Path = candidate
			loc.Found = true
			break
		}
	}

	return loc
}
