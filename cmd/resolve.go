package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/resolve"
)

type resolveOptions struct {
	format      string
	base        string
	extensions  []string
	searchRoots []string
	strict      bool
}

// resolution is one row of resolve output.
type resolution struct {
	Specifier string `json:"specifier" yaml:"specifier"`
	Status    string `json:"status" yaml:"status"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
}

func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <specifier>...",
		Short: "Resolve module specifiers to files",
		Long: `Resolve module specifiers the way kiln resolves them for the test runner.

Relative specifiers are resolved from the project root unless --base is
given. Bare specifiers are looked up in node_modules from the working
directory, then from kiln's install directory, then from the source
directory. A jest-sequencer- prefix is ignored.

Examples:
  kiln resolve ./src/app
  kiln resolve lodash react-dom/client
  kiln resolve --ext .ts --ext .tsx --strict ./components/Button`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "o", formatTable, "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&opts.base, "base", "", "base directory for relative specifiers (default is the project root)")
	cmd.Flags().StringArrayVar(&opts.extensions, "ext", nil, "extension to probe, in order (default from jest.moduleFileExtensions)")
	cmd.Flags().StringArrayVar(&opts.searchRoots, "search-root", nil, "additional lookup root for bare specifiers")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "report exhausted extension probing as not found")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *resolveOptions, specifiers []string) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	s, err := sessionFrom(cmd)
	if err != nil {
		return err
	}

	rctx := resolve.ContextFromConfig(s.store.Config(), s.installDir(cmd.Context()))
	if opts.base != "" {
		rctx.BaseDirectory = opts.base
	}
	if len(opts.extensions) > 0 {
		rctx.Extensions = resolve.NormalizeExtensions(opts.extensions)
	}
	rctx.SearchRoots = append(rctx.SearchRoots, opts.searchRoots...)
	rctx.StrictProbe = opts.strict

	resolver := s.resolver()

	results := make([]resolution, 0, len(specifiers))
	unresolved := 0
	for _, specifier := range specifiers {
		res, err := resolver.Resolve(specifier, rctx)
		if err != nil {
			return err
		}
		if !res.Found() {
			unresolved++
		}
		s.logger.Debug(cmd.Context(), "Resolved specifier",
			"specifier", specifier, "status", res.Status.String(), "path", res.Path)
		results = append(results, resolution{
			Specifier: specifier,
			Status:    res.Status.String(),
			Path:      res.Path,
		})
	}

	if opts.format == formatTable {
		t := newTable(cmd.OutOrStdout(), "SPECIFIER", "STATUS", "PATH")
		for _, r := range results {
			t.AppendRow(table.Row{r.Specifier, r.Status, r.Path})
		}
		t.Render()
	} else if err := writeStructured(cmd.OutOrStdout(), opts.format, results); err != nil {
		return err
	}

	if unresolved > 0 {
		return kerrors.NewResolveError(kerrors.ErrCodeNotResolved,
			fmt.Sprintf("%d of %d specifier(s) could not be resolved", unresolved, len(specifiers)))
	}
	return nil
}
