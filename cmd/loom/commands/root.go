// Package commands implements the loom command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/loom/config"
	"github.com/teranos/loom/errors"
	"github.com/teranos/loom/logger"
)

// NewRootCmd builds the loom command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "loom",
		Short: "loom - schema-driven code generation",
		Long: `loom - schema-driven code generation.

A schema (yaml, toml or json) is loaded into a run. Generators subscribe to
artifact events on a shared bus, grow the artifact tree, and each artifact
materializes itself into the output directory.

Available commands:
  generate   - Run the generators against a schema
  generators - List the registered generators
  schema     - Validate schema files
  config     - Show and validate configuration
  version    - Show version information

Examples:
  loom generate --schema shop.yaml          # Generate into ./gen
  loom generate shop.yaml --preview         # Build the tree without writing
  loom generate shop.yaml --watch           # Regenerate on every save
  loom config show --format yaml            # Show the effective config`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// config show must work even with an invalid config
			cfg, err := loadConfigUnchecked(cmd)
			if err != nil {
				return err
			}
			logger.SetTheme(cfg.Log.Theme)
			logger.SetOutput(cmd.ErrOrStderr())
			if err := logger.Initialize(cfg.Log.JSON, cfg.Log.Verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	root.PersistentFlags().StringP("config", "c", "", "Config file (default: nearest "+config.FileName+")")
	root.PersistentFlags().Bool("json", false, "Output JSON")

	root.AddCommand(
		newGenerateCmd(),
		newGeneratorsCmd(),
		newSchemaCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// LoadConfig loads and validates the configuration for cmd, applying the
// --config and -v persistent flags.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfigUnchecked(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadConfigUnchecked(cmd *cobra.Command) (*config.Config, error) {
	opts := config.Options{}
	if f := cmd.Flag("config"); f != nil {
		opts.File = f.Value.String()
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if f := cmd.Flag("verbose"); f != nil && f.Changed {
		if v, err := cmd.Flags().GetCount("verbose"); err == nil {
			cfg.Log.Verbosity = min(v, 3)
		}
	}
	return cfg, nil
}
