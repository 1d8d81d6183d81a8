package auth

import (
	"context"
)

// Validate checks token for the requested mode and returns its owner.
// Refresh tokens must still be listed on the user record; access tokens
// are stateless.
func (h *BuildInAuthHandler) Validate(ctx context.Context, repo UserRepository, token string, refresh bool) (*User, error) {
	user, _, err := h.validate(ctx, repo, token, refresh, OpValidate)
	if err != nil {
		return nil, h.fail(ctx, ActivityEventValidateFailure, "", err)
	}
	return user, nil
}

func (h *BuildInAuthHandler) validate(ctx context.Context, repo UserRepository, token string, refresh bool, op Operation) (*User, *TokenClaims, error) {
	if err := h.ready(op); err != nil {
		return nil, nil, err
	}

	if token == "" {
		return nil, nil, invalidData(op, "Token is required", nil)
	}

	claims, err := ValidateToken(token, refresh, h.tokens)
	if err != nil {
		return nil, nil, invalidData(op, "Invalid token", err)
	}

	if err := checkContext(ctx, op); err != nil {
		return nil, nil, err
	}

	user, err := repo.FindOne(ctx, ByUsername(claims.Username))
	if err != nil {
		if IsNoRowFound(err) {
			return nil, nil, invalidData(op, "Token does not exist", err)
		}
		return nil, nil, unknown(op, "Error while searching for user", err)
	}

	if user.AuthType != h.Name() {
		return nil, nil, invalidData(op, "Please use the auth method that you used to register", nil)
	}

	if user.ID.String() != claims.Subject {
		return nil, nil, invalidData(op, "Token subject mismatch", nil)
	}

	if !user.Enabled {
		return nil, nil, invalidData(op, "User is disabled", nil)
	}

	if refresh && !user.HasRefreshToken(token) {
		return nil, nil, invalidData(op, "Token does not exist", nil)
	}

	return user, claims, nil
}
