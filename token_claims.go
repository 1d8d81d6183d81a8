package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Values of the kid header for both token modes
const (
	KeyIDRefreshToken = "refresh_token"
	KeyIDAccessToken  = "access_token"
)

// TokenClaims is the payload of both refresh and access tokens
type TokenClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Refresh  bool   `json:"refresh"`
}

// NewTokenClaims returns unsigned claims for a user
func NewTokenClaims(subject, username, issuer string, refresh bool) *TokenClaims {
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       uuid.NewString(),
		},
		Username: username,
		Refresh:  refresh,
	}
}

// KeyID returns the kid header value for the claims mode
func (c *TokenClaims) KeyID() string {
	if c.Refresh {
		return KeyIDRefreshToken
	}
	return KeyIDAccessToken
}

// Sign stamps the expiry from the mode lifetime and returns the compact
// HS512 token signed with the mode secret.
func (c *TokenClaims) Sign(cfg TokenConfig) (string, error) {
	if c == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	if cfg.IsZero() {
		return "", errors.New("token config must be initialized", errors.CategoryInternal)
	}

	if c.IssuedAt == nil {
		c.IssuedAt = jwt.NewNumericDate(time.Now())
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	c.ExpiresAt = jwt.NewNumericDate(c.IssuedAt.Add(cfg.TTL(c.Refresh)))

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, c)
	token.Header["kid"] = c.KeyID()

	signed, err := token.SignedString(cfg.Key(c.Refresh))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}

// ToAccessToken derives access claims from refresh claims. The expiry is
// assigned when the result is signed.
func (c *TokenClaims) ToAccessToken() *TokenClaims {
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  c.Subject,
			Issuer:   c.Issuer,
			Audience: c.Audience,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       uuid.NewString(),
		},
		Username: c.Username,
		Refresh:  false,
	}
}

// ValidateToken verifies token with the secret of the requested mode and
// checks that the token was minted for that mode.
func ValidateToken(token string, refresh bool, cfg TokenConfig, opts ...jwt.ParserOption) (*TokenClaims, error) {
	parserOptions := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}, opts...)

	parsed, err := jwt.ParseWithClaims(token, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.Key(refresh), nil
	}, parserOptions...)

	if err != nil {
		clone := ErrInvalidToken.Clone()
		clone.Source = err
		if errors.Is(err, jwt.ErrTokenExpired) {
			clone.Message = "token is expired"
		}
		return nil, clone
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken.Clone()
	}

	if claims.Refresh != refresh {
		return nil, ErrWrongTokenType.Clone().WithMetadata(map[string]any{
			"expected_refresh": refresh,
		})
	}

	return claims, nil
}
