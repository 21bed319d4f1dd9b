// Package config loads loom settings from loom.toml files and LOOM_*
// environment variables.
package config

// Config represents the loom configuration
type Config struct {
	Generation GenerationConfig `mapstructure:"generation" toml:"generation" json:"generation" yaml:"generation"`
	Schema     SchemaConfig     `mapstructure:"schema" toml:"schema" json:"schema" yaml:"schema"`
	Log        LogConfig        `mapstructure:"log" toml:"log" json:"log" yaml:"log"`

	// Files lists the config files merged into this config, lowest precedence first
	Files []string `mapstructure:"-" toml:"-" json:"-" yaml:"-"`
}

// GenerationConfig configures generation runs
type GenerationConfig struct {
	OutputDir       string   `mapstructure:"output_dir" toml:"output_dir" json:"output_dir" yaml:"output_dir"`
	Workers         int      `mapstructure:"workers" toml:"workers" json:"workers" yaml:"workers"` // concurrent materialization per tree level
	Preview         bool     `mapstructure:"preview" toml:"preview" json:"preview" yaml:"preview"`
	HandlerFailures string   `mapstructure:"handler_failures" toml:"handler_failures" json:"handler_failures" yaml:"handler_failures"` // log | warn
	FormatGo        bool     `mapstructure:"format_go" toml:"format_go" json:"format_go" yaml:"format_go"`
	SQLDialect      string   `mapstructure:"sql_dialect" toml:"sql_dialect" json:"sql_dialect" yaml:"sql_dialect"` // postgres | sqlite
	Layers          []string `mapstructure:"layers" toml:"layers" json:"layers" yaml:"layers"`
	Manifest        bool     `mapstructure:"manifest" toml:"manifest" json:"manifest" yaml:"manifest"`
}

// SchemaConfig locates the schema
type SchemaConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON      bool   `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Verbosity int    `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"` // 0-3, same as -v count
	Theme     string `mapstructure:"theme" toml:"theme" json:"theme" yaml:"theme"`                 // gruvbox, everforest
}

// File system constants
const (
	DefaultDirPermissions  = 0o755
	DefaultFilePermissions = 0o644
)

// FileName is the name of project and user config files.
const FileName = "loom.toml"
