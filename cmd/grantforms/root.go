package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-grantforms/internal/config"
	"github.com/goliatone/go-grantforms/internal/logging"
	"github.com/goliatone/go-grantforms/pkg/definitions"
	"github.com/goliatone/go-grantforms/pkg/orchestrator"
	"github.com/goliatone/go-grantforms/pkg/render"
	"github.com/goliatone/go-grantforms/pkg/renderers/tui"
	"github.com/goliatone/go-grantforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-grantforms/pkg/storage"
	"github.com/goliatone/go-grantforms/pkg/storage/memory"
	"github.com/goliatone/go-grantforms/pkg/storage/sqlite"
	"github.com/goliatone/go-grantforms/pkg/theming"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "grantforms",
		Short:         "UK energy grant lead capture forms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.String("config", "", "path to a YAML config file")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "json", "log format (json, console)")
	flags.String("tui-format", "json", "answers format of the tui renderer (json, form, pretty)")
	flags.String("definitions-dir", "", "directory of scheme/form definitions layered over the built-in set")
	flags.String("presets-file", "", "YAML presets patching labels and copy per form")
	flags.String("theme.name", "", "theme manifest name")
	flags.String("theme.variant", "", "theme variant")

	root.AddCommand(
		newServeCmd(),
		newWizardCmd(),
		newRenderCmd(),
		newValidateCmd(),
		newOpenAPICmd(),
	)
	return root
}

// app bundles what every subcommand resolves from configuration.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	defs   *definitions.Store
	orch   *orchestrator.Orchestrator
}

func loadApp(cmd *cobra.Command, vanillaOpts ...vanilla.Option) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	defs, err := loadDefinitions(cfg.DefinitionsDir)
	if err != nil {
		return nil, err
	}

	registry := render.NewRegistry()
	html, err := vanilla.New(vanillaOpts...)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	format := tui.OutputFormatJSON
	if name, _ := cmd.Flags().GetString("tui-format"); name != "" {
		if format, err = tui.ParseOutputFormat(name); err != nil {
			return nil, err
		}
	}
	terminal, err := tui.New(
		tui.WithPromptDriver(tui.NewSurveyDriver(cmd.ErrOrStderr())),
		tui.WithOutputFormat(format),
	)
	if err != nil {
		return nil, err
	}
	if err := registry.Register(terminal); err != nil {
		return nil, err
	}

	selector, err := theming.NewSelector(cfg.Theme.Name, cfg.Theme.Variant)
	if err != nil {
		return nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithDefinitions(defs),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(vanilla.Name),
		orchestrator.WithThemeSelector(selector),
		orchestrator.WithThemeFallbacks(theming.DefaultFallbacks()),
	}
	if cfg.PresetsFile != "" {
		presets, err := orchestrator.NewPresetTransformerFromFS(os.DirFS(filepath.Dir(cfg.PresetsFile)), filepath.Base(cfg.PresetsFile))
		if err != nil {
			return nil, err
		}
		opts = append(opts, orchestrator.WithTransformer(presets))
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		defs:   defs,
		orch:   orchestrator.New(opts...),
	}, nil
}

func loadDefinitions(dir string) (*definitions.Store, error) {
	if dir == "" {
		return definitions.Builtin()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definitions dir %s is not a directory", dir)
	}
	return definitions.Load(definitions.EmbeddedFS(), os.DirFS(dir))
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return sqlite.Open(cfg.Path)
	default:
		return memory.New(), nil
	}
}
