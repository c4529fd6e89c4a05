// Package resolve turns module specifiers into absolute file paths.
//
// Resolution is a pure function of the specifier, the Context and what
// exists on disk at call time. Nothing is cached. "Not found" is a Result,
// never an error; only input the resolver cannot interpret is an error.
//
// Specifiers are handled in this order:
//
//  1. empty: not found
//  2. a recognized plugin prefix (jest-sequencer-) is stripped
//  3. absolute: exact file when it carries a known extension, otherwise
//     index probing inside that directory
//  4. "..": index probing in the parent of the base directory
//  5. relative ("./", "../"): joined directly when it carries a known
//     extension, otherwise extension probing
//  6. bare: dependency lookup from the working directory, then from each
//     search root
//
// Extension probing tries, for each extension in order, the file itself
// and then the directory index before moving to the next extension.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"dario.cat/mergo"

	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/locator"
)

// SequencerPrefix marks a test-sequencer plugin name.
const SequencerPrefix = "jest-sequencer-"

// DefaultExtensions is used when a Context names none.
var DefaultExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".json"}

// Status classifies a Result.
type Status int

const (
	StatusNotFound Status = iota
	StatusResolved
	// StatusPassthrough is the legacy soft failure of extension probing:
	// Path holds the original specifier, which is not a usable path.
	StatusPassthrough
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusPassthrough:
		return "passthrough"
	default:
		return "not found"
	}
}

// Result is the outcome of a resolution.
type Result struct {
	Path   string
	Status Status
}

// Found reports whether Path is a resolved file path.
func (r Result) Found() bool {
	return r.Status == StatusResolved
}

func resolved(path string) Result {
	return Result{Path: path, Status: StatusResolved}
}

var notFound = Result{Status: StatusNotFound}

// Context carries the per-call resolution inputs. Zero fields are filled
// from the resolver's defaults.
type Context struct {
	BaseDirectory string
	Extensions    []string
	// SearchRoots are tried, in order, after the working directory when
	// looking up bare specifiers.
	SearchRoots []string
	// StrictProbe reports exhausted extension probing as StatusNotFound
	// instead of echoing the specifier back as StatusPassthrough.
	StrictProbe bool
}

// Resolver resolves specifiers against a filesystem.
type Resolver struct {
	loc      *locator.Locator
	getwd    func() (string, error)
	prefixes []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocator sets the filesystem probe.
func WithLocator(loc *locator.Locator) Option {
	return func(r *Resolver) {
		r.loc = loc
	}
}

// WithWorkingDir pins the directory used as the default base directory and
// as the first bare-specifier lookup root.
func WithWorkingDir(dir string) Option {
	return func(r *Resolver) {
		r.getwd = func() (string, error) { return dir, nil }
	}
}

// WithPrefixes replaces the recognized plugin prefixes.
func WithPrefixes(prefixes ...string) Option {
	return func(r *Resolver) {
		r.prefixes = prefixes
	}
}

// New creates a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		getwd:    os.Getwd,
		prefixes: []string{SequencerPrefix},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.loc == nil {
		r.loc = locator.New(nil)
	}
	return r
}

// Resolve resolves specifier within ctx.
func (r *Resolver) Resolve(specifier string, ctx Context) (Result, error) {
	if specifier == "" {
		return notFound, nil
	}
	if err := checkSpecifier(specifier); err != nil {
		return notFound, err
	}

	ctx, err := r.fill(ctx)
	if err != nil {
		return notFound, err
	}

	name := r.stripPrefix(specifier)
	if name == "" {
		return notFound, nil
	}

	hasExt := hasExtension(name, ctx.Extensions)

	switch {
	case isAbsolute(name):
		if hasExt {
			if r.loc.IsFile(name) {
				return resolved(name), nil
			}
			return notFound, nil
		}
		return r.probe(name, "index", specifier, ctx), nil

	case name == "..":
		return r.probe(filepath.Join(ctx.BaseDirectory, ".."), "index", specifier, ctx), nil

	case strings.Contains(name, "./"):
		if hasExt {
			return resolved(filepath.Join(ctx.BaseDirectory, name)), nil
		}
		return r.probe(ctx.BaseDirectory, name, specifier, ctx), nil
	}

	return r.resolveBare(name, ctx), nil
}

// fill copies ctx and completes it with defaults.
func (r *Resolver) fill(ctx Context) (Context, error) {
	cwd, err := r.getwd()
	if err != nil {
		return ctx, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot determine working directory", err)
	}

	defaults := Context{
		BaseDirectory: cwd,
		Extensions:    DefaultExtensions,
	}
	if err := mergo.Merge(&ctx, defaults); err != nil {
		return ctx, kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot apply context defaults", err)
	}

	if !filepath.IsAbs(ctx.BaseDirectory) {
		ctx.BaseDirectory = filepath.Join(cwd, ctx.BaseDirectory)
	}

	return ctx, nil
}

func (r *Resolver) stripPrefix(specifier string) string {
	for _, prefix := range r.prefixes {
		if prefix != "" && strings.HasPrefix(specifier, prefix) {
			return strings.TrimPrefix(specifier, prefix)
		}
	}
	return specifier
}

// probe tries base/name<ext> then base/name/index<ext> for each extension.
func (r *Resolver) probe(base, name, original string, ctx Context) Result {
	target := filepath.Join(base, name)
	for _, ext := range ctx.Extensions {
		if file := target + ext; r.loc.IsFile(file) {
			return resolved(file)
		}
		if index := filepath.Join(target, "index"+ext); r.loc.IsFile(index) {
			return resolved(index)
		}
	}

	if ctx.StrictProbe {
		return notFound
	}
	return Result{Path: original, Status: StatusPassthrough}
}

func checkSpecifier(specifier string) error {
	if strings.ContainsRune(specifier, 0) {
		return kerrors.ErrMalformedSpecifier(specifier, "contains NUL byte")
	}
	if !utf8.ValidString(specifier) {
		return kerrors.ErrMalformedSpecifier(specifier, fmt.Sprintf("invalid UTF-8 in %q", specifier))
	}
	return nil
}

func isAbsolute(name string) bool {
	return strings.HasPrefix(name, "/") || filepath.IsAbs(name)
}

func hasExtension(name string, exts []string) bool {
	ext := filepath.Ext(name)
	return ext != "" && slices.Contains(exts, ext)
}
