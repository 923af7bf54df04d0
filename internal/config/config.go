// Package config loads comstar's optional TOML configuration file,
// generalizing the teacher's Load/Write shape from a fixed
// storage+sync schema to the defaults+store schema comstar needs.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/pipeline"
)

// Defaults holds operator-tunable defaults that every comstar command
// falls back to when a flag isn't set explicitly.
type Defaults struct {
	Concurrency int    `toml:"concurrency"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	IgnoreFile  string `toml:"ignore_file"`
	// BandwidthLimit caps aggregate transfer throughput in bytes per
	// second across all in-flight fetches/uploads. Zero means
	// unlimited, the default.
	BandwidthLimit int64 `toml:"bandwidth_limit"`
}

// Store holds optional object-store credentials. They are parsed and
// written with the rest of the file, but internal/transport does not
// read them: object-store access always uses the ambient credential
// chain for the scheme in use (the AWS SDK's default chain for s3://,
// Application Default Credentials for gs://).
type Store struct {
	EndpointURL string `toml:"endpoint_url"`
	KeyID       string `toml:"key_id"`
	SecretKey   string `toml:"secret_key"`
	Region      string `toml:"region"`
}

// Config is the top-level configuration file shape.
type Config struct {
	Defaults Defaults `toml:"defaults"`
	Store    Store    `toml:"store"`
}

// defaultConfig returns the values comstar uses when no config file is
// present at all, or when a field is left unset in one that is.
func defaultConfig() *Config {
	return &Config{
		Defaults: Defaults{
			Concurrency: pipeline.DefaultWidth,
			LogLevel:    "info",
			LogFormat:   "text",
			IgnoreFile:  ".comstarignore",
		},
	}
}

// DefaultPath returns the platform-appropriate config file path.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "comstar", "config.toml")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "comstar", "config.toml")
}

// Load reads and parses a TOML config file at path, filling in
// defaultConfig's values for anything left zero. A missing file is not
// an error: it returns defaultConfig() unchanged, since every field
// here is optional.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, comstarerr.IO("reading config file "+path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, comstarerr.Parse("parsing config file "+path, err)
	}
	if cfg.Defaults.Concurrency <= 0 {
		cfg.Defaults.Concurrency = pipeline.DefaultWidth
	}
	if cfg.Defaults.LogLevel == "" {
		cfg.Defaults.LogLevel = "info"
	}
	if cfg.Defaults.LogFormat == "" {
		cfg.Defaults.LogFormat = "text"
	}
	if cfg.Defaults.IgnoreFile == "" {
		cfg.Defaults.IgnoreFile = ".comstarignore"
	}

	return cfg, nil
}

// Write serializes cfg to TOML and writes it to path, creating parent
// directories as needed.
func Write(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return comstarerr.IO("creating config directory", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return comstarerr.Parse("serializing config", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return comstarerr.IO("writing config file", err)
	}
	return nil
}
