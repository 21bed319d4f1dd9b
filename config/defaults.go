package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("generation.output_dir", "gen")
	v.SetDefault("generation.workers", 4)
	v.SetDefault("generation.preview", false)
	v.SetDefault("generation.handler_failures", "log")
	v.SetDefault("generation.format_go", true)
	v.SetDefault("generation.sql_dialect", "postgres")
	v.SetDefault("generation.layers", []string{"model", "store"})
	v.SetDefault("generation.manifest", true)

	// Known key so LOOM_SCHEMA_PATH is picked up by AutomaticEnv
	v.SetDefault("schema.path", "")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.theme", "everforest")
}

// Default returns the configuration produced by the defaults alone.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var c Config
	_ = v.Unmarshal(&c)
	return &c
}
