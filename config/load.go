package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/loom/errors"
)

// EnvPrefix prefixes every environment override (LOOM_GENERATION_WORKERS, ...).
const EnvPrefix = "LOOM"

// Options controls where Load looks for config files.
type Options struct {
	// Dir is where the upward search for a project loom.toml starts (default: cwd)
	Dir string
	// File, when set, replaces the project file search
	File string
	// Home overrides the user home directory (default: os.UserHomeDir)
	Home string
}

// Load reads the configuration.
// Precedence (lowest to highest): defaults < ~/.loom/loom.toml < project loom.toml < LOOM_* env vars.
func Load(opts Options) (*Config, error) {
	v, files, err := newViper(opts)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	config.Files = files
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path without
// environment overrides.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}
	config.Files = []string{configPath}
	return &config, nil
}

func newViper(opts Options) (*viper.Viper, []string, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	var paths []string
	home := opts.Home
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".loom", FileName))
	}

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, nil, errors.Wrapf(err, "config file %s", opts.File)
		}
		paths = append(paths, opts.File)
	} else if project := FindProjectConfig(opts.Dir); project != "" {
		paths = append(paths, project)
	}

	var merged []string
	v.SetConfigType("toml")
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		v.SetConfigFile(p)
		if err := v.MergeInConfig(); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read config file %s", p)
		}
		merged = append(merged, p)
	}
	return v, merged, nil
}

// FindProjectConfig searches for loom.toml by walking up from dir (cwd when
// empty). Returns "" when none is found.
func FindProjectConfig(dir string) string {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
