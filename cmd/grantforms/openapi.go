package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-grantforms/pkg/openapi"
)

func newOpenAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document for the JSON form API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = a.logger.Sync() }()

			opts := []openapi.Option{openapi.WithTitle(a.cfg.Title + " API")}
			if url, _ := cmd.Flags().GetString("server-url"); url != "" {
				opts = append(opts, openapi.WithServerURL(url))
			}
			doc, err := openapi.JSON(cmd.Context(), a.defs, opts...)
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(doc))
				return err
			}
			if err := os.WriteFile(path, doc, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output file (stdout if empty)")
	flags.String("server-url", "", "server URL advertised in the document")
	return cmd
}
