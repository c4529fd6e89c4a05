package cmd

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/conneroisu/kiln/internal/resolve"
	"github.com/conneroisu/kiln/internal/runner"
)

func newRunCmd() *cobra.Command {
	var pkg string

	cmd := &cobra.Command{
		Use:   "run <binary> [args...]",
		Short: "Run a tool with the project configuration",
		Long: `Run a tool binary at the project root with the merged configuration in
KILN_CONFIG. Everything after the binary name is passed to the tool.

A TypeScript project missing its tsconfig.json gets a minimal one first.
When running jest with jest.testSequencer configured, the sequencer is
resolved and passed as --testSequencer.

Examples:
  kiln run jest --coverage
  kiln --typescript run tsc --noEmit
  kiln run --package eslint eslint src`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sessionFrom(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			cfg := s.store.Config()

			if _, err := s.store.ValidateTypedProjectSetup(ctx); err != nil {
				return err
			}

			binary, toolArgs := args[0], args[1:]
			if binary == "jest" && cfg.Jest.TestSequencer != "" && !slices.Contains(toolArgs, "--testSequencer") {
				rctx := resolve.ContextFromConfig(cfg, s.installDir(ctx))
				res, err := s.resolver().Resolve(cfg.Jest.TestSequencer, rctx)
				if err != nil {
					return err
				}
				if res.Found() {
					toolArgs = append([]string{"--testSequencer", res.Path}, toolArgs...)
				} else {
					s.logger.Info(ctx, "Test sequencer not resolved, leaving it to jest",
						"sequencer", cfg.Jest.TestSequencer, "status", res.Status.String())
				}
			}

			r, err := runner.New(cfg,
				runner.WithLogger(s.logger),
				runner.WithOptions(runner.Options{
					Stdin:   cmd.InOrStdin(),
					Stdout:  cmd.OutOrStdout(),
					Stderr:  cmd.ErrOrStderr(),
					Package: pkg,
				}),
			)
			if err != nil {
				return err
			}

			return r.Run(ctx, binary, toolArgs...)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&pkg, "package", "", "package owning the binary, to also search its bin directory")
	return cmd
}
