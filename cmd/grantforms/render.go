package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-grantforms/pkg/formstate"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/storage/memory"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <form-id>",
		Short: "Render a single form to stdout or a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			ctx := cmd.Context()
			form, err := a.orch.Form(ctx, args[0])
			if err != nil {
				return err
			}
			assignments, _ := cmd.Flags().GetStringArray("set")
			values, err := parseAssignments(form, assignments)
			if err != nil {
				return err
			}

			ctrl, err := formstate.Load(ctx, memory.New(), "render", form)
			if err != nil {
				return err
			}
			if len(values) > 0 {
				if err := ctrl.Apply(ctx, values); err != nil {
					return err
				}
			}
			snap := ctrl.Snapshot()

			rendererName, _ := cmd.Flags().GetString("renderer")
			output, err := a.orch.Generate(ctx, orchestrator.Request{
				FormID:   form.ID,
				Renderer: rendererName,
				RenderOptions: render.RenderOptions{
					Action:    form.Route,
					Values:    snap.Values,
					Errors:    snap.Errors,
					Validity:  snap.Validity,
					Consent:   snap.Consent,
					CanSubmit: snap.CanSubmit,
				},
				ThemeName:    a.cfg.Theme.Name,
				ThemeVariant: a.cfg.Theme.Variant,
			})
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}
			if err := os.WriteFile(path, output, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "form written to %s\n", path)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("renderer", "", "renderer to use (vanilla, tui)")
	flags.StringP("output", "o", "", "output file (stdout if empty)")
	flags.StringArray("set", nil, "pre-fill a field, name=value (repeat for sets)")
	return cmd
}
