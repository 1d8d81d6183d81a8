package config

import (
	"os"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NEONET_PORT
const EnvPrefix = "NEONET"

// LoaderConfig holds optional file overrides
type LoaderConfig struct {
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for Load
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit config file path
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the config file, the .env file and NEONET_ environment
// variables, in increasing precedence, then applies defaults and validates.
func Load(opts ...LoaderOption) (*Config, error) {
	lc := LoaderConfig{EnvFile: ".env"}
	for _, opt := range opts {
		if opt != nil {
			opt(&lc)
		}
	}

	if lc.EnvFile != "" && exists(lc.EnvFile) {
		if err := godotenv.Load(lc.EnvFile); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "failed to load env file").
				WithMetadata(map[string]any{"path": lc.EnvFile})
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryValidation, "failed to read config file").
				WithMetadata(map[string]any{"path": lc.ConfigFile})
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "failed to decode config")
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", DefaultAppName)
	v.SetDefault("env", DefaultEnv)
	v.SetDefault("hostname", DefaultHostname)
	v.SetDefault("port", DefaultPort)
	v.SetDefault("debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("persistence.driver", "memory")
	v.SetDefault("persistence.dsn", "")
	v.SetDefault("persistence.max_open_conns", 0)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
