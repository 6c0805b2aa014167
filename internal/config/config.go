// Package config handles tool configuration loading.
package config

// Config holds all romdump settings.
type Config struct {
	Schema  SchemaConfig  `yaml:"schema"`
	Decode  DecodeConfig  `yaml:"decode"`
	Logging LoggingConfig `yaml:"logging"`
}

// SchemaConfig locates the type definition files.
type SchemaConfig struct {
	Dirs  []string `yaml:"dirs"`  // Directories scanned for *.hcl files
	Files []string `yaml:"files"` // Individual schema files, loaded after dirs
}

// DecodeConfig holds decoding defaults the CLI flags can override.
type DecodeConfig struct {
	Type   string `yaml:"type"`   // Default type name to decode
	Offset uint32 `yaml:"offset"` // Default ROM offset
	Deep   bool   `yaml:"deep"`   // Follow pointers by default
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Schema: SchemaConfig{
			Dirs: []string{"./schema"},
		},
		Decode: DecodeConfig{
			Deep: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
