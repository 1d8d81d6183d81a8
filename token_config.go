package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Keys read from AuthConfig.ExtraFields
const (
	FieldRefreshTokenSign = "refresh_token_sign"
	FieldAccessTokenSign  = "access_token_sign"
	FieldRefreshTokenExp  = "refresh_token_exp"
	FieldAccessTokenExp   = "access_token_exp"
)

// MinTokenTTL is the shortest lifetime accepted for either token mode
const MinTokenTTL = 60 * time.Second

// TokenConfig holds the signing secrets and lifetimes for both token modes.
// Values are checked once at construction.
type TokenConfig struct {
	refreshSecret []byte
	accessSecret  []byte
	refreshTTL    time.Duration
	accessTTL     time.Duration
}

// NewTokenConfig validates and builds a TokenConfig
func NewTokenConfig(refreshSecret, accessSecret string, refreshTTL, accessTTL time.Duration) (TokenConfig, error) {
	in := struct {
		RefreshSecret string
		AccessSecret  string
		RefreshTTL    time.Duration
		AccessTTL     time.Duration
	}{refreshSecret, accessSecret, refreshTTL, accessTTL}

	err := validation.ValidateStruct(&in,
		validation.Field(&in.RefreshSecret, validation.Required),
		validation.Field(&in.AccessSecret,
			validation.Required,
			validation.By(func(any) error {
				if in.AccessSecret == in.RefreshSecret {
					return fmt.Errorf("must differ from the refresh secret")
				}
				return nil
			}),
		),
		validation.Field(&in.RefreshTTL, validation.Required, validation.Min(MinTokenTTL)),
		validation.Field(&in.AccessTTL,
			validation.Required,
			validation.Min(MinTokenTTL),
			validation.Max(in.RefreshTTL),
		),
	)
	if err != nil {
		return TokenConfig{}, configInvalid("invalid token configuration", err)
	}

	return TokenConfig{
		refreshSecret: []byte(refreshSecret),
		accessSecret:  []byte(accessSecret),
		refreshTTL:    refreshTTL,
		accessTTL:     accessTTL,
	}, nil
}

// TokenConfigFromFields builds a TokenConfig from handler extra fields.
// Lifetimes are decimal seconds.
func TokenConfigFromFields(fields map[string]string) (TokenConfig, error) {
	refreshTTL, err := secondsField(fields, FieldRefreshTokenExp)
	if err != nil {
		return TokenConfig{}, err
	}

	accessTTL, err := secondsField(fields, FieldAccessTokenExp)
	if err != nil {
		return TokenConfig{}, err
	}

	return NewTokenConfig(
		fields[FieldRefreshTokenSign],
		fields[FieldAccessTokenSign],
		refreshTTL,
		accessTTL,
	)
}

// Key returns the signing secret for the given mode
func (c TokenConfig) Key(refresh bool) []byte {
	if refresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

// TTL returns the lifetime for the given mode
func (c TokenConfig) TTL(refresh bool) time.Duration {
	if refresh {
		return c.refreshTTL
	}
	return c.accessTTL
}

// IsZero reports whether the config was never constructed
func (c TokenConfig) IsZero() bool {
	return len(c.refreshSecret) == 0 && len(c.accessSecret) == 0
}

func secondsField(fields map[string]string, key string) (time.Duration, error) {
	raw, ok := fields[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, configInvalid("missing "+key, nil)
	}

	seconds, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil {
		return 0, configInvalid(key+" must be a decimal number of seconds", err)
	}

	return time.Duration(seconds) * time.Second, nil
}
