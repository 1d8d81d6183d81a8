package auth

import (
	"context"
)

// Logout revokes one refresh token. Tokens that no longer validate as
// refresh tokens are dropped from the list in the same write.
func (h *BuildInAuthHandler) Logout(ctx context.Context, repo UserRepository, token string) error {
	user, err := h.logout(ctx, repo, token)
	if err != nil {
		return h.fail(ctx, ActivityEventLogoutFailure, "", err)
	}

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventLogoutSuccess,
		UserID:    user.ID.String(),
		Username:  user.Username,
	})

	return nil
}

func (h *BuildInAuthHandler) logout(ctx context.Context, repo UserRepository, token string) (*User, error) {
	if err := h.ready(OpLogout); err != nil {
		return nil, err
	}

	if token == "" {
		return nil, invalidData(OpLogout, "Token is required", nil)
	}

	if err := checkContext(ctx, OpLogout); err != nil {
		return nil, err
	}

	user, err := repo.FindOne(ctx, ByToken(token))
	if err != nil {
		if IsNoRowFound(err) {
			return nil, invalidData(OpLogout, "Token does not exist", err)
		}
		return nil, unknown(OpLogout, "Error while searching for user", err)
	}

	if user.AuthType != h.Name() {
		return nil, invalidData(OpLogout, "Please use the auth method that you used to register", nil)
	}

	before := len(user.RefreshTokens)
	user.RefreshTokens = h.retainTokens(user.RefreshTokens, token)

	if _, err := repo.Update(ctx, user); err != nil {
		return nil, unknown(OpLogout, "Error while saving tokens", err)
	}

	h.opts.logger.Info("user logged out",
		"handler", h.Name(),
		"user_id", user.ID.String(),
		"pruned", before-len(user.RefreshTokens),
	)

	return user, nil
}

// retainTokens keeps stored tokens that differ from revoked and still
// validate as refresh tokens
func (h *BuildInAuthHandler) retainTokens(tokens []string, revoked string) []string {
	kept := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" || t == revoked {
			continue
		}
		if _, err := ValidateToken(t, true, h.tokens); err != nil {
			continue
		}
		kept = append(kept, t)
	}
	return kept
}
