package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/conneroisu/kiln/internal/config"
	kerrors "github.com/conneroisu/kiln/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the merged project configuration",
		Long: `Inspect the configuration kiln hands to external tools: built-in defaults,
merged with the project configuration file and the command-line overrides.`,
	}

	cmd.AddCommand(newConfigShowCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration",
		Long: `Print the merged configuration in the form published to child processes
through KILN_CONFIG, including the derived root, sourcePath and outputPath.

Examples:
  kiln config show
  kiln config show --format json
  kiln --set webpack.devServer.port=3000 config show --format table`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}

			settings, err := s.store.Config().ToMap()
			if err != nil {
				return kerrors.NewInternalError(kerrors.ErrCodeInternalError, "cannot render configuration", err)
			}

			if format == formatTable {
				writeSettingsTable(cmd.OutOrStdout(), settings)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), format, settings)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatYAML, "Output format (yaml, json, table)")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for problems",
		Long: `Check the merged configuration and report errors and warnings with
suggestions. Problems reading the configuration file are reported too, since
kiln falls back to defaults for an unusable file.

With --repair, a TypeScript project missing its tsconfig.json gets a minimal one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			for _, warning := range s.report.Warnings {
				fmt.Fprintf(out, "%s %v\n", text.FgYellow.Sprint("warning:"), warning)
			}

			if repair {
				created, err := s.store.ValidateTypedProjectSetup(cmd.Context())
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(out, "Created %s\n", config.TSConfigFile)
				}
			}

			result := config.ValidateConfigWithDetails(s.store.Config())
			if report := result.String(); report != "" {
				fmt.Fprint(out, report)
			}

			if result.HasErrors() {
				return kerrors.NewValidationError(kerrors.ErrCodeValidationFailed,
					fmt.Sprintf("configuration has %d error(s)", len(result.Errors)))
			}

			fmt.Fprintln(out, text.FgGreen.Sprint("Configuration is valid"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "create a missing tsconfig.json for TypeScript projects")
	return cmd
}
