package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-grantforms/pkg/renderers/tui"
)

func newWizardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard <scheme>",
		Short: "Walk a scheme's forms in the terminal",
		Long: "Prompts for every field of the scheme's mandatory form and eligibility\n" +
			"check, re-asking until each answer is valid, then prints the summary.\n" +
			"Pass --session with a sqlite store to resume an earlier run.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			store, err := openStore(a.cfg.Storage)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					a.logger.Warn("close store", zap.Error(err))
				}
			}()

			namespace, _ := cmd.Flags().GetString("session")
			if namespace == "" {
				namespace = uuid.NewString()
			}

			renderer, err := tui.New(
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
				tui.WithOutputFormat(tui.OutputFormatPrettyText),
			)
			if err != nil {
				return err
			}
			wizard, err := tui.NewWizard(renderer, a.defs, store, namespace)
			if err != nil {
				return err
			}
			if _, err := wizard.Run(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, tui.ErrAborted) {
					fmt.Fprintf(cmd.ErrOrStderr(), "aborted; resume with --session %s\n", namespace)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", namespace)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("session", "", "storage namespace to resume (defaults to a new id)")
	flags.String("storage.driver", "memory", "storage backend (memory, sqlite)")
	flags.String("storage.path", "grantforms.db", "sqlite database path")
	return cmd
}
