package auth

import (
	"context"
)

// Login checks the credentials and issues a refresh token which is appended
// to the user's outstanding tokens.
func (h *BuildInAuthHandler) Login(ctx context.Context, repo UserRepository, username, password string) (LoginResult, error) {
	token, user, err := h.login(ctx, repo, username, password)
	if err != nil {
		return LoginResult{}, h.fail(ctx, ActivityEventLoginFailure, username, err)
	}

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    user.ID.String(),
		Username:  user.Username,
	})

	return JWTResult(token), nil
}

func (h *BuildInAuthHandler) login(ctx context.Context, repo UserRepository, username, password string) (string, *User, error) {
	if err := h.ready(OpLogin); err != nil {
		return "", nil, err
	}

	if username == "" || password == "" {
		return "", nil, invalidData(OpLogin, "Username and password are required", nil)
	}

	if looksLikePattern(username) {
		return "", nil, invalidData(OpLogin, "Invalid username", nil)
	}

	if err := checkContext(ctx, OpLogin); err != nil {
		return "", nil, err
	}

	user, err := repo.FindOne(ctx, ByUsername(username))
	if err != nil {
		return "", nil, unknown(OpLogin, "Error while searching for user", err)
	}

	if user.AuthType == "" {
		return "", nil, unauthorized(OpLogin, "Please contact your administrator", nil)
	}

	if user.AuthType != h.Name() {
		return "", nil, unauthorized(OpLogin, "Please use the auth method that you used to register", nil)
	}

	if !user.Enabled {
		return "", nil, unauthorized(OpLogin, "User is disabled", nil)
	}

	if err := h.passwords.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return "", nil, unauthorized(OpLogin, "Invalid password", nil)
	}

	token, err := NewTokenClaims(user.ID.String(), user.Username, h.appName, true).Sign(h.tokens)
	if err != nil {
		return "", nil, unknown(OpLogin, "Error while signing token", err)
	}

	user.RefreshTokens = append(user.RefreshTokens, token)

	updated, err := repo.Update(ctx, user)
	if err != nil {
		return "", nil, unknown(OpLogin, "Error while saving token", err)
	}

	h.opts.logger.Info("user logged in",
		"handler", h.Name(),
		"user_id", updated.ID.String(),
	)

	return token, updated, nil
}
