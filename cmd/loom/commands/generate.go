package commands

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/loom/config"
	"github.com/teranos/loom/display"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/generation"
	"github.com/teranos/loom/logger"
)

type generateOptions struct {
	schema          string
	out             string
	preview         bool
	watch           bool
	workers         int
	dialect         string
	handlerFailures string
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [schema]",
		Short: "Run the generators against a schema",
		Long: `Load a schema and run every registered generator against it.

The schema path comes from the argument, --schema, or schema.path in the
config. With --preview the artifact tree is built and printed but nothing is
written. With --watch the schema and config files are watched and the run is
repeated on every change until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.schema = args[0]
			}
			return runGenerate(cmd, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.schema, "schema", "s", "", "Schema file (yaml, toml or json)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output directory (overrides generation.output_dir)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Build the artifact tree without writing files")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Regenerate when the schema or config changes")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Concurrent materializations per tree level")
	cmd.Flags().StringVar(&opts.dialect, "dialect", "", "SQL dialect: postgres, sqlite")
	cmd.Flags().StringVar(&opts.handlerFailures, "handler-failures", "", "Handler failure policy: log, warn")
	return cmd
}

// apply layers the command line over the loaded configuration.
func (o *generateOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	if o.schema != "" {
		cfg.Schema.Path = o.schema
	}
	if o.out != "" {
		cfg.Generation.OutputDir = o.out
	}
	if cmd.Flags().Changed("preview") {
		cfg.Generation.Preview = o.preview
	}
	if cmd.Flags().Changed("workers") {
		cfg.Generation.Workers = o.workers
	}
	if o.dialect != "" {
		cfg.Generation.SQLDialect = o.dialect
	}
	if o.handlerFailures != "" {
		cfg.Generation.HandlerFailures = o.handlerFailures
	}
}

func loadGenerateConfig(cmd *cobra.Command, opts *generateOptions) (*config.Config, error) {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Schema.Path == "" {
		return nil, errors.WithHint(
			errors.NewInvalidArgumentError("no schema given"),
			"pass a schema path, use --schema, or set schema.path in loom.toml")
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := loadGenerateConfig(cmd, opts)
	if err != nil {
		return err
	}

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := generateOnce(ctx, cmd, s, cfg)
	if err != nil {
		return err
	}
	if !opts.watch {
		if !result.Success {
			return errors.Newf("generation failed with %d error(s)", len(result.Errors))
		}
		return nil
	}
	return watch(ctx, cmd, opts, cfg, &s)
}

func generateOnce(ctx context.Context, cmd *cobra.Command, s *session, cfg *config.Config) (*generation.Result, error) {
	jsonOut := display.ShouldOutputJSON(cmd)
	verbosity := cfg.Log.Verbosity

	// stdout carries only the result document in JSON mode
	var sink generation.ProgressSink = display.NewCLISink(cmd.ErrOrStderr(), verbosity)
	if jsonOut {
		sink = display.NewJSONSink(cmd.ErrOrStderr())
	}

	before := s.writer.Metrics()
	result, err := s.orch.Generate(ctx, cfg.Schema.Path, cfg.Generation.Preview, sink)
	if err != nil {
		return nil, err
	}
	written := s.writer.Metrics().Since(before)

	if jsonOut {
		return result, display.OutputJSON(cmd.OutOrStdout(), display.NewResultView(result))
	}
	if err := display.PrintResult(cmd.OutOrStdout(), result); err != nil {
		return nil, err
	}
	if !cfg.Generation.Preview {
		pterm.Fprintln(cmd.OutOrStdout(), pterm.Gray(pterm.Sprintf("%d files, %d bytes written to %s",
			written.FilesWritten, written.BytesWritten, s.writer.Root())))
	}
	return result, nil
}

// watch reruns generation whenever a watched file changes. A change to a
// config file reloads the config and rebuilds the session.
func watch(ctx context.Context, cmd *cobra.Command, opts *generateOptions, cfg *config.Config, current **session) error {
	log := logger.ComponentLogger("loom.watch")

	for {
		files := append([]string{cfg.Schema.Path}, cfg.Files...)
		w, err := config.NewWatcher(config.DefaultDebounce, files...)
		if err != nil {
			return err
		}
		changes := make(chan []string, 1)
		w.OnChange(func(changed []string) {
			select {
			case changes <- changed:
			default:
			}
		})
		w.Start()
		pterm.Fprintln(cmd.ErrOrStderr(), pterm.LightCyan("watching ")+cfg.Schema.Path+pterm.Gray(" (ctrl-c to stop)"))

		reload, err := watchLoop(ctx, cmd, *current, cfg, changes)
		_ = w.Stop()
		if err != nil || !reload {
			return err
		}

		next, err := loadGenerateConfig(cmd, opts)
		if err != nil {
			log.Warnw("Config reload failed, keeping previous config", logger.FieldError, err)
			continue
		}
		ns, err := newSession(next)
		if err != nil {
			log.Warnw("Config reload failed, keeping previous config", logger.FieldError, err)
			continue
		}
		_ = (*current).Close()
		cfg, *current = next, ns
		logger.SetTheme(cfg.Log.Theme)
		logger.SetVerbosity(cfg.Log.Verbosity)
		log.Infow("Config reloaded", logger.FieldCount, len(cfg.Files))
		if _, err := generateOnce(ctx, cmd, ns, cfg); err != nil {
			return err
		}
	}
}

// watchLoop regenerates on schema changes. It returns reload=true when a
// config file changed.
func watchLoop(ctx context.Context, cmd *cobra.Command, s *session, cfg *config.Config, changes <-chan []string) (reload bool, err error) {
	for {
		select {
		case <-ctx.Done():
			return false, nil
		case changed := <-changes:
			if slices.ContainsFunc(changed, func(p string) bool { return isConfigFile(cfg, p) }) {
				return true, nil
			}
			if _, err := generateOnce(ctx, cmd, s, cfg); err != nil {
				return false, err
			}
		}
	}
}

func isConfigFile(cfg *config.Config, path string) bool {
	for _, f := range cfg.Files {
		if abs, err := filepath.Abs(f); err == nil && abs == path {
			return true
		}
	}
	return false
}
