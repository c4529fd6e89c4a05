package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	kerrors "github.com/conneroisu/kiln/internal/errors"
	"github.com/conneroisu/kiln/internal/runner"
)

// binaryReport is one row of which output.
type binaryReport struct {
	Name       string   `json:"name" yaml:"name"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"`
	Found      bool     `json:"found" yaml:"found"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

func newWhichCmd() *cobra.Command {
	var (
		format string
		pkg    string
	)

	cmd := &cobra.Command{
		Use:   "which <binary>...",
		Short: "Locate tool binaries",
		Long: `Show which executable "kiln run" would start for each binary: the project's
node_modules/.bin first, then kiln's install directory, then PATH.

Examples:
  kiln which jest
  kiln which --package typescript tsc
  kiln which webpack eslint --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			r, err := runner.New(s.store.Config(),
				runner.WithLogger(s.logger),
				runner.WithOptions(runner.Options{Package: pkg}),
			)
			if err != nil {
				return err
			}

			reports := make([]binaryReport, 0, len(args))
			var missing []string
			for _, name := range args {
				loc, err := r.Which(name)
				if err != nil && !kerrors.IsResolveError(err) {
					return err
				}
				if !loc.Found {
					missing = append(missing, name)
				}
				reports = append(reports, binaryReport{
					Name:       name,
					Path:       loc.Path,
					Found:      loc.Found,
					Candidates: loc.Candidates,
				})
			}

			if format == formatTable {
				t := newTable(cmd.OutOrStdout(), "BINARY", "PATH")
				for _, report := range reports {
					path := report.Path
					if !report.Found {
						path = "not found"
					}
					t.AppendRow(table.Row{report.Name, path})
				}
				t.Render()
			} else if err := writeStructured(cmd.OutOrStdout(), format, reports); err != nil {
				return err
			}

			if len(missing) > 0 {
				return kerrors.NewResolveError(kerrors.ErrCodeBinaryNotFound,
					fmt.Sprintf("binary not found: %s", strings.Join(missing, ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatTable, "Output format (table, json, yaml)")
	cmd.Flags().StringVar(&pkg, "package", "", "package owning the binary, to also search its bin directory")
	return cmd
}
