// Package config loads wordhash settings from defaults, an optional YAML
// file, WORDHASH_* environment variables and command-line flags, in that
// order of precedence (later wins).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "WORDHASH_"

// Config holds runtime configuration.
type Config struct {
	DBPath    string `koanf:"db" validate:"required"`
	Addr      string `koanf:"addr" validate:"required"`
	ReposDir  string `koanf:"repos_dir" validate:"required"`
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:    "wordhash.db",
		Addr:      ":8080",
		ReposDir:  "repos",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to a YAML config file (or WORDHASH_CONFIG env)")
	fs.String("db", d.DBPath, "Path to the SQLite database file")
	fs.String("addr", d.Addr, "HTTP listen address")
	fs.String("repos-dir", d.ReposDir, "Directory for cloned git sources")
	fs.String("log-level", d.LogLevel, "Log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "Log format (text, json)")
}

// Load builds a Config. path names an optional YAML file; fs, when not nil,
// supplies flag values. Flags left at their defaults do not override the
// file or the environment.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if fs != nil {
		err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		}), nil)
		if err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Path returns the config file named by the --config flag or, failing that,
// the WORDHASH_CONFIG environment variable.
func Path(fs *pflag.FlagSet, getenv func(string) string) string {
	if fs != nil {
		if p, err := fs.GetString("config"); err == nil && p != "" {
			return p
		}
	}
	return getenv(envPrefix + "CONFIG")
}
