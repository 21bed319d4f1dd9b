package config

import (
	"slices"

	"github.com/teranos/loom/errors"
)

var (
	failurePolicies = []string{"log", "warn"}
	sqlDialects     = []string{"postgres", "sqlite"}
	logThemes       = []string{"", "gruvbox", "everforest"}
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Generation.OutputDir == "" {
		return errors.New("generation.output_dir cannot be empty")
	}

	// Workers: 0 = default (1), negative = invalid
	if c.Generation.Workers < 0 {
		return errors.Newf("generation.workers must be >= 0, got %d", c.Generation.Workers)
	}

	if !slices.Contains(failurePolicies, c.Generation.HandlerFailures) {
		err := errors.Newf("generation.handler_failures must be one of %v, got %q", failurePolicies, c.Generation.HandlerFailures)
		return errors.WithHint(err, "use \"warn\" to record failing generator handlers as run warnings")
	}
	if !slices.Contains(sqlDialects, c.Generation.SQLDialect) {
		return errors.Newf("generation.sql_dialect must be one of %v, got %q", sqlDialects, c.Generation.SQLDialect)
	}
	for _, layer := range c.Generation.Layers {
		if layer == "" {
			return errors.New("generation.layers cannot contain an empty name")
		}
	}

	if c.Log.Verbosity < 0 || c.Log.Verbosity > 3 {
		return errors.Newf("log.verbosity must be between 0 and 3, got %d", c.Log.Verbosity)
	}
	if !slices.Contains(logThemes, c.Log.Theme) {
		return errors.Newf("log.theme must be gruvbox or everforest, got %q", c.Log.Theme)
	}
	return nil
}
