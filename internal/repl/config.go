// Package repl implements the interactive shell around the prolog
// engine: colon-commands, query stepping, colored output, and the
// optional .goprolog.yaml configuration file.
package repl

import (
	"os"

	"github.com/spf13/cast"
	yaml "gopkg.in/yaml.v2"
)

// Config holds the shell's tunables. Zero values mean defaults.
type Config struct {
	Prompt      string `yaml:"prompt"`
	Color       *bool  `yaml:"color"`
	OccursCheck *bool  `yaml:"occurs_check"`
	MaxDepth    int    `yaml:"max_depth"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfigFile is looked up in the working directory.
const DefaultConfigFile = ".goprolog.yaml"

// LoadConfig reads the yaml config at path. A missing file is not an
// error; it yields the zero config. Environment variables override the
// file: GOPROLOG_LOG_LEVEL and GOPROLOG_MAX_DEPTH.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}
	if v := os.Getenv("GOPROLOG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("GOPROLOG_MAX_DEPTH"); v != "" {
		cfg.MaxDepth = cast.ToInt(v)
	}
	if cfg.Prompt == "" {
		cfg.Prompt = "?- "
	}
	return cfg, nil
}

// ColorEnabled reports whether colored output is on (default yes).
func (c Config) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}
