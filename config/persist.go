package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/loom/errors"
)

// Marshal renders c as toml, json or yaml.
func Marshal(c *Config, format string) ([]byte, error) {
	switch format {
	case "toml", "":
		return toml.Marshal(c)
	case "json":
		return json.MarshalIndent(c, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(c)
	}
	return nil, errors.NewInvalidArgumentError("unknown format %q (toml, json, yaml)", format)
}

// Save writes c as TOML to path. An existing file is kept as path.bak.
func Save(c *Config, path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create config directory for %s", path)
	}

	if existing, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(path+".bak", existing, DefaultFilePermissions); err != nil {
			return errors.Wrapf(err, "failed to back up %s", path)
		}
	}
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}
	return nil
}
