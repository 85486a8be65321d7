package config

import (
	"fmt"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/rxh/internal/rxerr"
)

// ConfigPathEnvVar overrides the path to the TOML config file, mirroring
// the precedence every other environment override in this module uses:
// explicit env var wins, otherwise fall back to the conventional filename
// in the working directory.
const ConfigPathEnvVar = "RXH_CONFIG"

// DefaultConfigPath is the file read from the working directory when
// RXH_CONFIG is not set.
const DefaultConfigPath = "config.toml"

// Load reads and decodes the TOML configuration file at the resolved path
// (RXH_CONFIG env var, or DefaultConfigPath), applies parser-level
// defaults, runs the exactly-one-of shape checks, and validates per-field
// constraints. It does not bind any listeners.
func Load() (*Config, error) {
	return LoadPath(resolvePath())
}

// LoadPath loads and validates the configuration file at path.
func LoadPath(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), TOMLParser()); err != nil {
		return nil, rxerr.Config("load file", fmt.Errorf("%s: %w", path, err))
	}

	// RXH_-prefixed environment variables override file values, e.g.
	// RXH_ADMIN_LISTEN -> admin.listen.
	envProvider := env.Provider("RXH_", ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, rxerr.Config("load env", err)
	}

	cfg := &Config{}
	uc := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			DecodeHook:       decodeHooks(),
			WeaklyTypedInput: true,
			Result:           cfg,
		},
	}
	if err := k.UnmarshalWithConf("", cfg, uc); err != nil {
		return nil, rxerr.Config("unmarshal", err)
	}

	cfg.Normalize()

	if err := cfg.checkShapes(); err != nil {
		return nil, rxerr.Config("validate shape", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, rxerr.Config("validate fields", err)
	}

	return cfg, nil
}

func resolvePath() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	return DefaultConfigPath
}

// envTransform maps RXH_ADMIN_LISTEN -> admin.listen, leaving [[server]]
// fields to the file source only: per-server overrides via flat env names
// would be ambiguous across multiple array entries.
func envTransform(key string) string {
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return strings.ToLower(strings.TrimPrefix(key, "RXH_"))
}

var envMappings = map[string]string{
	"RXH_ADMIN_LISTEN": "admin.listen",
}
