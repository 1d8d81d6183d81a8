package auth

import (
	"context"
)

// Refresh exchanges a valid refresh token for a new access token. The
// refresh token is neither rotated nor persisted again.
func (h *BuildInAuthHandler) Refresh(ctx context.Context, repo UserRepository, token string) (string, error) {
	user, claims, err := h.validate(ctx, repo, token, true, OpRefresh)
	if err != nil {
		return "", h.fail(ctx, ActivityEventRefreshFailure, "", err)
	}

	access, err := claims.ToAccessToken().Sign(h.tokens)
	if err != nil {
		return "", h.fail(ctx, ActivityEventRefreshFailure, user.Username, unknown(OpRefresh, "Error while signing token", err))
	}

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventRefreshSuccess,
		UserID:    user.ID.String(),
		Username:  user.Username,
	})

	return access, nil
}
