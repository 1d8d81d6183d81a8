package config

import (
	"net"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/neonet-app/go-auth"
	"github.com/neonet-app/go-auth/repository"
)

const (
	DefaultAppName  = "neonet"
	DefaultHostname = "0.0.0.0"
	DefaultPort     = 16667
	DefaultEnv      = "development"
)

// Config is the service configuration
type Config struct {
	AppName     string            `mapstructure:"app_name" json:"app_name" yaml:"app_name"`
	Env         string            `mapstructure:"env" json:"env" yaml:"env"`
	Hostname    string            `mapstructure:"hostname" json:"hostname" yaml:"hostname"`
	Port        int               `mapstructure:"port" json:"port" yaml:"port"`
	Peers       []string          `mapstructure:"peers" json:"peers" yaml:"peers"`
	Debug       bool              `mapstructure:"debug" json:"debug" yaml:"debug"`
	Log         LogConfig         `mapstructure:"log" json:"log" yaml:"log"`
	Persistence repository.Config `mapstructure:"persistence" json:"persistence" yaml:"persistence"`
	Auth        []auth.AuthConfig `mapstructure:"auth" json:"auth" yaml:"auth"`
}

// LogConfig selects the zerolog level and output format
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}

// ApplyDefaults fills unset values
func (c *Config) ApplyDefaults() {
	if c.AppName == "" {
		c.AppName = DefaultAppName
	}
	if c.Env == "" {
		c.Env = DefaultEnv
	}
	if c.Hostname == "" {
		c.Hostname = DefaultHostname
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Persistence.Driver == "" {
		c.Persistence.Driver = repository.DriverMemory
	}
	if c.Env == DefaultEnv {
		c.Debug = true
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	verr := errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(c,
			validation.Field(&c.AppName, validation.Required, validation.Length(1, 64)),
			validation.Field(&c.Env, validation.Required, validation.In("development", "staging", "production", "test")),
			validation.Field(&c.Hostname, validation.Required),
			validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Log, validation.By(func(any) error {
				return validation.ValidateStruct(&c.Log,
					validation.Field(&c.Log.Level, validation.In("trace", "debug", "info", "warn", "error")),
					validation.Field(&c.Log.Format, validation.In("json", "console", "pretty")),
				)
			})),
			validation.Field(&c.Persistence, validation.By(func(any) error {
				return validation.ValidateStruct(&c.Persistence,
					validation.Field(&c.Persistence.Driver, validation.In(
						repository.DriverMemory,
						repository.DriverSQLite,
						repository.DriverPostgres,
					)),
					validation.Field(&c.Persistence.DSN, validation.By(func(any) error {
						if c.Persistence.Driver == repository.DriverPostgres && c.Persistence.DSN == "" {
							return errors.New("dsn is required for postgres", errors.CategoryValidation)
						}
						return nil
					})),
				)
			})),
			validation.Field(&c.Auth, validation.Required),
		)
	}, "invalid configuration")

	if verr != nil {
		return verr
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Hostname, strconv.Itoa(c.Port))
}

// Redacted returns a copy safe to log
func (c Config) Redacted() Config {
	out := c
	if out.Persistence.DSN != "" && out.Persistence.Driver == repository.DriverPostgres {
		out.Persistence.DSN = redactedValue
	}

	out.Auth = make([]auth.AuthConfig, len(c.Auth))
	for i, a := range c.Auth {
		fields := make(map[string]string, len(a.ExtraFields))
		for k, v := range a.ExtraFields {
			if strings.HasSuffix(k, "_sign") || strings.Contains(k, "secret") {
				v = redactedValue
			}
			fields[k] = v
		}
		a.ExtraFields = fields
		out.Auth[i] = a
	}
	return out
}

const redactedValue = "[redacted]"
