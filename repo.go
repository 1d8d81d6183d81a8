package auth

import (
	"context"
	"regexp"
	"slices"
	"strings"
)

// MaxUsernamePatternLength bounds the size of a /pattern/ username filter
const MaxUsernamePatternLength = 64

// Repository is the storage contract handlers depend on. T is the entity
// and S the sparse search criteria.
type Repository[T any, S any] interface {
	// Init prepares the backing store (schema, indexes)
	Init(ctx context.Context) error
	// Create persists a new entity and returns it with its generated id
	Create(ctx context.Context, record T) (T, error)
	// FindOne returns the first match or ErrNoRowFound
	FindOne(ctx context.Context, criteria S) (T, error)
	// FindAll returns every match
	FindAll(ctx context.Context, criteria S) ([]T, error)
	// Update replaces the stored entity with the same id
	Update(ctx context.Context, record T) (T, error)
	// Delete removes the entity with the given id
	Delete(ctx context.Context, id string) error
	// DeleteMany removes every match and returns the count
	DeleteMany(ctx context.Context, criteria S) (int64, error)
}

// UserRepository stores users
type UserRepository = Repository[*User, SearchUser]

// SearchUser is a sparse user filter; nil fields are ignored. A username
// wrapped in slashes, e.g. "/^jo/", is matched as a case insensitive
// pattern, anything else matches exactly.
type SearchUser struct {
	Username  *string  `json:"username,omitempty"`
	Roles     []Role   `json:"role,omitempty"`
	Enabled   *bool    `json:"enabled,omitempty"`
	AuthTypes []string `json:"auth_type,omitempty"`
	Token     *string  `json:"token,omitempty"`
}

// ByUsername filters on username
func ByUsername(username string) SearchUser {
	return SearchUser{Username: &username}
}

// ByRoles filters on any of the roles
func ByRoles(roles ...Role) SearchUser {
	return SearchUser{Roles: roles}
}

// ByEnabled filters on account state
func ByEnabled(enabled bool) SearchUser {
	return SearchUser{Enabled: &enabled}
}

// ByAuthTypes filters on any of the handler names
func ByAuthTypes(authTypes ...string) SearchUser {
	return SearchUser{AuthTypes: authTypes}
}

// ByToken filters on users holding the refresh token
func ByToken(token string) SearchUser {
	return SearchUser{Token: &token}
}

// WithUsername returns a copy also filtering on username
func (s SearchUser) WithUsername(username string) SearchUser {
	s.Username = &username
	return s
}

// WithRoles returns a copy also filtering on roles
func (s SearchUser) WithRoles(roles ...Role) SearchUser {
	s.Roles = roles
	return s
}

// WithEnabled returns a copy also filtering on account state
func (s SearchUser) WithEnabled(enabled bool) SearchUser {
	s.Enabled = &enabled
	return s
}

// WithAuthTypes returns a copy also filtering on handler names
func (s SearchUser) WithAuthTypes(authTypes ...string) SearchUser {
	s.AuthTypes = authTypes
	return s
}

// WithToken returns a copy also filtering on a refresh token
func (s SearchUser) WithToken(token string) SearchUser {
	s.Token = &token
	return s
}

// IsEmpty reports whether no field is set
func (s SearchUser) IsEmpty() bool {
	return s.Username == nil &&
		len(s.Roles) == 0 &&
		s.Enabled == nil &&
		len(s.AuthTypes) == 0 &&
		s.Token == nil
}

// UsernamePattern returns the compiled pattern when the username filter is
// a /pattern/ value. ok is false for exact filters.
func (s SearchUser) UsernamePattern() (re *regexp.Regexp, ok bool, err error) {
	if s.Username == nil {
		return nil, false, nil
	}

	raw := *s.Username
	if len(raw) < 2 || !strings.HasPrefix(raw, "/") || !strings.HasSuffix(raw, "/") {
		return nil, false, nil
	}

	expr := raw[1 : len(raw)-1]
	if expr == "" {
		return nil, true, NewInvalidSearch("username pattern must not be empty", nil)
	}

	if len(expr) > MaxUsernamePatternLength {
		return nil, true, NewInvalidSearch("username pattern is too long", nil)
	}

	re, err = regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, true, NewInvalidSearch("invalid username pattern", err)
	}

	return re, true, nil
}

// Matcher compiles the filter into a predicate over users. Empty filters
// match every user.
func (s SearchUser) Matcher() (func(*User) bool, error) {
	re, isPattern, err := s.UsernamePattern()
	if err != nil {
		return nil, err
	}

	return func(u *User) bool {
		if u == nil {
			return false
		}

		if s.Username != nil {
			if isPattern {
				if !re.MatchString(u.Username) {
					return false
				}
			} else if u.Username != *s.Username {
				return false
			}
		}

		if len(s.Roles) > 0 && !slices.Contains(s.Roles, u.Role) {
			return false
		}

		if s.Enabled != nil && u.Enabled != *s.Enabled {
			return false
		}

		if len(s.AuthTypes) > 0 && !slices.Contains(s.AuthTypes, u.AuthType) {
			return false
		}

		if s.Token != nil && !u.HasRefreshToken(*s.Token) {
			return false
		}

		return true
	}, nil
}
