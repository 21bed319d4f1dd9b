package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/loom/config"
	"github.com/teranos/loom/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and validate configuration",
		Long: `Show and validate loom configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (LOOM_* prefix, e.g. LOOM_GENERATION_WORKERS)
3. Project config (nearest loom.toml walking up from the working directory)
4. User config (~/.loom/loom.toml)
5. Default values`,
	}

	var format string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigUnchecked(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, format)
			if err != nil {
				return err
			}
			if format == "toml" || format == "yaml" {
				pterm.Fprint(cmd.OutOrStdout(), "# loom configuration\n")
			}
			pterm.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	show.Flags().StringVar(&format, "format", "toml", "Output format: toml, json, yaml")

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			pterm.Fprintln(cmd.OutOrStdout(), pterm.Green("✔ ")+"configuration is valid")
			for _, f := range cfg.Files {
				pterm.Fprintln(cmd.OutOrStdout(), pterm.Gray("  "+f))
			}
			return nil
		},
	}

	where := &cobra.Command{
		Use:   "where",
		Short: "Show which config files were merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfigUnchecked(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Files) == 0 {
				pterm.Fprintln(cmd.OutOrStdout(), "no config files found, using defaults")
				return nil
			}
			for i, f := range cfg.Files {
				pterm.Fprintln(cmd.OutOrStdout(), pterm.Sprintf("%d. %s", i+1, f))
			}
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.FileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			path := filepath.Join(dir, config.FileName)
			if _, err := os.Stat(path); err == nil && !force {
				return errors.WithHint(
					errors.NewInvalidStateError("%s already exists", path),
					"use --force to overwrite (the old file is kept as .bak)")
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			pterm.Fprintln(cmd.OutOrStdout(), pterm.Green("✔ ")+"wrote "+path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	cmd.AddCommand(show, validate, where, initCmd)
	return cmd
}
