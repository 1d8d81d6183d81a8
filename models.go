package auth

import (
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted account record
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Role           Role       `bun:"user_role,notnull" json:"role"`
	Enabled        bool       `bun:"enabled,notnull" json:"enabled"`
	Username       string     `bun:"username,notnull,unique" json:"username"`
	PasswordHash   string     `bun:"password_hash,notnull" json:"-"`
	ProfilePicture string     `bun:"profile_picture,nullzero" json:"profile_picture,omitempty"`
	Description    string     `bun:"description,nullzero" json:"description,omitempty"`
	Mood           string     `bun:"mood,nullzero" json:"mood,omitempty"`
	AuthType       string     `bun:"auth_type,nullzero" json:"auth_type,omitempty"`
	RefreshTokens  []string   `bun:"refresh_tokens,type:jsonb" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return ComparePasswordAndHash(password, u.PasswordHash) == nil
}

// HasRefreshToken reports whether token is one of the outstanding refresh tokens
func (u *User) HasRefreshToken(token string) bool {
	if u == nil || token == "" {
		return false
	}
	return slices.Contains(u.RefreshTokens, token)
}

// Clone returns a deep copy of the record
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}

	out := *u
	out.RefreshTokens = slices.Clone(u.RefreshTokens)
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		out.CreatedAt = &t
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}

// CreateUser is the registration input
type CreateUser struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Description    string `json:"description,omitempty"`
	Mood           string `json:"mood,omitempty"`
}

// Validate checks the registration input
func (c CreateUser) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Username,
			validation.Required,
			validation.Length(3, 64),
			validation.Match(usernamePattern),
		),
		validation.Field(&c.Password,
			validation.Required,
			validation.By(maxBytes(maxPasswordBytes)),
		),
		validation.Field(&c.ProfilePicture, validation.Length(0, 2048)),
		validation.Field(&c.Description, validation.Length(0, 1024)),
		validation.Field(&c.Mood, validation.Length(0, 128)),
	)
}

// NewUser builds the record for a validated registration
func (c CreateUser) NewUser(role Role, passwordHash, authType string) *User {
	return &User{
		Role:           role,
		Enabled:        true,
		Username:       c.Username,
		PasswordHash:   passwordHash,
		ProfilePicture: c.ProfilePicture,
		Description:    c.Description,
		Mood:           c.Mood,
		AuthType:       authType,
		RefreshTokens:  []string{},
	}
}
