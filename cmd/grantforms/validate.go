package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-grantforms/pkg/flow"
	"github.com/goliatone/go-grantforms/pkg/validation"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check definitions and presets, or validate answers for one form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			router, err := flow.New(a.defs)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			for _, form := range a.defs.Forms() {
				if _, err := a.orch.Form(ctx, form.ID); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			formID, _ := cmd.Flags().GetString("form")
			if formID == "" {
				fmt.Fprintf(out, "ok: %d schemes, %d forms, %d results, %d routes\n",
					len(a.defs.Schemes()), len(a.defs.Forms()), len(a.defs.Results()), len(router.Routes()))
				return nil
			}

			form, err := a.orch.Form(ctx, formID)
			if err != nil {
				return err
			}
			assignments, _ := cmd.Flags().GetStringArray("set")
			values, err := parseAssignments(form, assignments)
			if err != nil {
				return err
			}
			for name := range values {
				if _, ok := form.Field(name); !ok {
					return fmt.Errorf("%w: %s.%s", validation.ErrUnknownField, form.ID, name)
				}
			}

			results := validation.ValidateForm(form, values)
			for _, field := range form.Fields {
				result := results[field.Name]
				if result.Valid {
					fmt.Fprintf(out, "✓ %s\n", field.Name)
					continue
				}
				fmt.Fprintf(out, "✗ %s: %s\n", field.Name, result.Message)
			}
			if !validation.Valid(results) {
				return errors.New("validation failed")
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.String("form", "", "form id whose answers to validate")
	flags.StringArray("set", nil, "answer a field, name=value (repeat for sets)")
	return cmd
}
