package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/neonet-app/go-auth"
	"github.com/neonet-app/go-auth/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func buildInConfig() auth.AuthConfig {
	return auth.AuthConfig{
		Kind:    auth.KindBuildIn,
		Enabled: true,
		Name:    auth.BuildInHandlerName,
		Version: auth.BuildInHandlerVersion,
		ExtraFields: map[string]string{
			auth.FieldRefreshTokenSign: "refresh-secret",
			auth.FieldAccessTokenSign:  "access-secret",
			auth.FieldRefreshTokenExp:  "7200",
			auth.FieldAccessTokenExp:   "300",
		},
	}
}

func newTestHandler(t *testing.T, opts ...auth.HandlerOption) *auth.BuildInAuthHandler {
	t.Helper()
	opts = append([]auth.HandlerOption{
		auth.WithLogger(nopLogger{}),
		auth.WithPasswordCost(bcrypt.MinCost),
	}, opts...)

	h := auth.NewBuildInAuthHandler(opts...)
	require.NoError(t, h.InitConfig(buildInConfig(), "neonet"))
	return h
}

func registerNeo(t *testing.T, h auth.AuthHandler, repo auth.UserRepository) {
	t.Helper()
	err := h.Register(context.Background(), repo, auth.CreateUser{
		Username: "neo",
		Password: "follow-the-rabbit",
	}, auth.RoleUser)
	require.NoError(t, err)
}

func loginNeo(t *testing.T, h auth.AuthHandler, repo auth.UserRepository) string {
	t.Helper()
	res, err := h.Login(context.Background(), repo, "neo", "follow-the-rabbit")
	require.NoError(t, err)
	require.False(t, res.IsRedirect())
	require.NotEmpty(t, res.Token)
	return res.Token
}

func TestBuildInInitConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*auth.AuthConfig)
		appName string
	}{
		{"disabled", func(c *auth.AuthConfig) { c.Enabled = false }, "neonet"},
		{"wrong kind", func(c *auth.AuthConfig) { c.Kind = auth.KindOAuth }, "neonet"},
		{"wrong version", func(c *auth.AuthConfig) { c.Version = "9.9.9" }, "neonet"},
		{"empty app name", func(c *auth.AuthConfig) {}, " "},
		{"missing refresh secret", func(c *auth.AuthConfig) { delete(c.ExtraFields, auth.FieldRefreshTokenSign) }, "neonet"},
		{"non numeric expiry", func(c *auth.AuthConfig) { c.ExtraFields[auth.FieldAccessTokenExp] = "5m" }, "neonet"},
		{"access outlives refresh", func(c *auth.AuthConfig) { c.ExtraFields[auth.FieldAccessTokenExp] = "9000" }, "neonet"},
		{"bad password cost", func(c *auth.AuthConfig) { c.ExtraFields[auth.FieldPasswordCost] = "high" }, "neonet"},
		{"bad hashid flag", func(c *auth.AuthConfig) { c.ExtraFields[auth.FieldUseHashid] = "maybe" }, "neonet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildInConfig()
			tt.mutate(&cfg)

			h := auth.NewBuildInAuthHandler(auth.WithLogger(nopLogger{}))
			err := h.InitConfig(cfg, tt.appName)
			require.Error(t, err)
			assert.True(t, auth.IsConfigInvalid(err), "got %v", err)
		})
	}
}

func TestBuildInInitConfigTwice(t *testing.T) {
	h := newTestHandler(t)
	err := h.InitConfig(buildInConfig(), "neonet")
	assert.True(t, auth.IsConfigInvalid(err))
}

func TestBuildInRequiresInit(t *testing.T) {
	h := auth.NewBuildInAuthHandler(auth.WithLogger(nopLogger{}))
	_, err := h.Login(context.Background(), repository.NewMemoryUsers(), "neo", "pw")
	assert.True(t, auth.IsUnknown(err))
}

func TestBuildInMetadata(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, auth.BuildInHandlerName, h.Name())
	assert.Equal(t, auth.BuildInHandlerVersion, h.Version())
	assert.Equal(t, auth.KindBuildIn, h.Kind())
	assert.NotEmpty(t, h.Description())
	assert.False(t, h.RegisterRequireZKP())
	assert.Equal(t, 2*time.Hour, h.TokenConfig().TTL(true))
	assert.Equal(t, 5*time.Minute, h.TokenConfig().TTL(false))
}

func TestBuildInRegister(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)

	registerNeo(t, h, repo)

	user, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, user.Role)
	assert.True(t, user.Enabled)
	assert.Equal(t, auth.BuildInHandlerName, user.AuthType)
	assert.Empty(t, user.RefreshTokens)
	assert.NotEqual(t, "follow-the-rabbit", user.PasswordHash)
	assert.True(t, user.CheckPassword("follow-the-rabbit"))

	err = h.Register(ctx, repo, auth.CreateUser{Username: "neo", Password: "another-one"}, auth.RoleAdmin)
	require.Error(t, err)
	assert.True(t, auth.IsInvalidData(err))

	users, err := repo.FindAll(ctx, auth.SearchUser{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestBuildInRegisterInvalidInput(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)

	tests := []struct {
		name  string
		input auth.CreateUser
		role  auth.Role
	}{
		{"empty username", auth.CreateUser{Password: "pw-123456"}, auth.RoleUser},
		{"short username", auth.CreateUser{Username: "ne", Password: "pw-123456"}, auth.RoleUser},
		{"pattern username", auth.CreateUser{Username: "/neo/", Password: "pw-123456"}, auth.RoleUser},
		{"empty password", auth.CreateUser{Username: "neo"}, auth.RoleUser},
		{"unknown role", auth.CreateUser{Username: "neo", Password: "pw-123456"}, auth.Role("Root")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Register(ctx, repo, tt.input, tt.role)
			require.Error(t, err)
			assert.True(t, auth.IsInvalidData(err), "got %v", err)
		})
	}

	assert.Equal(t, 0, repo.Len())
}

func TestBuildInRegisterWithHashid(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()

	cfg := buildInConfig()
	cfg.ExtraFields[auth.FieldUseHashid] = "true"

	h := auth.NewBuildInAuthHandler(auth.WithLogger(nopLogger{}), auth.WithPasswordCost(bcrypt.MinCost))
	require.NoError(t, h.InitConfig(cfg, "neonet"))

	registerNeo(t, h, repo)

	first, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)

	other := repository.NewMemoryUsers()
	registerNeo(t, h, other)
	second, err := other.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestBuildInLoginEmptyCredentialsSkipRepository(t *testing.T) {
	h := newTestHandler(t)
	repo := new(MockUserRepository)

	_, err := h.Login(context.Background(), repo, "", "pw")
	assert.True(t, auth.IsInvalidData(err))

	_, err = h.Login(context.Background(), repo, "neo", "")
	assert.True(t, auth.IsInvalidData(err))

	_, err = h.Login(context.Background(), repo, "/.*/", "pw")
	assert.True(t, auth.IsInvalidData(err))

	repo.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestBuildInLoginFailures(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)
	registerNeo(t, h, repo)

	_, err := h.Login(ctx, repo, "neo", "wrong-password")
	assert.True(t, auth.IsUnauthorized(err))

	_, err = h.Login(ctx, repo, "trinity", "follow-the-rabbit")
	assert.True(t, auth.IsUnknown(err))

	user, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)
	assert.Empty(t, user.RefreshTokens)

	user.AuthType = "GithubAuthHandler"
	_, err = repo.Update(ctx, user)
	require.NoError(t, err)

	_, err = h.Login(ctx, repo, "neo", "follow-the-rabbit")
	assert.True(t, auth.IsUnauthorized(err))

	user.AuthType = ""
	_, err = repo.Update(ctx, user)
	require.NoError(t, err)

	_, err = h.Login(ctx, repo, "neo", "follow-the-rabbit")
	assert.True(t, auth.IsUnauthorized(err))

	user.AuthType = auth.BuildInHandlerName
	user.Enabled = false
	_, err = repo.Update(ctx, user)
	require.NoError(t, err)

	_, err = h.Login(ctx, repo, "neo", "follow-the-rabbit")
	assert.True(t, auth.IsUnauthorized(err))
}

func TestBuildInLoginRepositoryError(t *testing.T) {
	h := newTestHandler(t)
	repo := new(MockUserRepository)
	repo.On("FindOne", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	_, err := h.Login(context.Background(), repo, "neo", "pw")
	assert.True(t, auth.IsUnknown(err))
	repo.AssertExpectations(t)
}

func TestBuildInTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)
	registerNeo(t, h, repo)

	refresh := loginNeo(t, h, repo)

	user, err := h.Validate(ctx, repo, refresh, true)
	require.NoError(t, err)
	assert.Equal(t, "neo", user.Username)
	assert.Equal(t, []string{refresh}, user.RefreshTokens)

	_, err = h.Validate(ctx, repo, refresh, false)
	assert.True(t, auth.IsInvalidData(err))

	access, err := h.Refresh(ctx, repo, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, access)

	user, err = h.Validate(ctx, repo, access, false)
	require.NoError(t, err)
	assert.Equal(t, "neo", user.Username)

	_, err = h.Validate(ctx, repo, access, true)
	assert.True(t, auth.IsInvalidData(err))

	_, err = h.Refresh(ctx, repo, access)
	assert.True(t, auth.IsInvalidData(err))

	stored, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)
	assert.Equal(t, []string{refresh}, stored.RefreshTokens)

	require.NoError(t, h.Logout(ctx, repo, refresh))

	_, err = h.Validate(ctx, repo, refresh, true)
	assert.True(t, auth.IsInvalidData(err))

	_, err = h.Refresh(ctx, repo, refresh)
	assert.True(t, auth.IsInvalidData(err))

	err = h.Logout(ctx, repo, refresh)
	assert.True(t, auth.IsInvalidData(err))
}

func TestBuildInLogoutKeepsOtherSessions(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)
	registerNeo(t, h, repo)

	first := loginNeo(t, h, repo)
	second := loginNeo(t, h, repo)
	require.NotEqual(t, first, second)

	require.NoError(t, h.Logout(ctx, repo, first))

	user, err := h.Validate(ctx, repo, second, true)
	require.NoError(t, err)
	assert.Equal(t, []string{second}, user.RefreshTokens)
}

func TestBuildInLogoutPrunesStaleTokens(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)
	registerNeo(t, h, repo)

	current := loginNeo(t, h, repo)
	kept := loginNeo(t, h, repo)

	user, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)

	stale := auth.NewTokenClaims(user.ID.String(), user.Username, "neonet", true)
	stale.IssuedAt = jwt.NewNumericDate(time.Now().Add(-3 * time.Hour))
	expired, err := stale.Sign(h.TokenConfig())
	require.NoError(t, err)

	user.RefreshTokens = append(user.RefreshTokens, expired, "", "garbage")
	_, err = repo.Update(ctx, user)
	require.NoError(t, err)

	require.NoError(t, h.Logout(ctx, repo, current))

	user, err = repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)
	assert.Equal(t, []string{kept}, user.RefreshTokens)
}

func TestBuildInValidateRejects(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	h := newTestHandler(t)
	registerNeo(t, h, repo)
	refresh := loginNeo(t, h, repo)

	_, err := h.Validate(ctx, repo, "", true)
	assert.True(t, auth.IsInvalidData(err))

	_, err = h.Validate(ctx, repo, "not-a-token", true)
	assert.True(t, auth.IsInvalidData(err))

	foreign, err := auth.NewTokenConfig("other-refresh", "other-access", time.Hour, time.Minute)
	require.NoError(t, err)
	forged, err := auth.NewTokenClaims("id", "neo", "neonet", true).Sign(foreign)
	require.NoError(t, err)
	_, err = h.Validate(ctx, repo, forged, true)
	assert.True(t, auth.IsInvalidData(err))

	ghost, err := auth.NewTokenClaims("id", "ghost", "neonet", true).Sign(h.TokenConfig())
	require.NoError(t, err)
	_, err = h.Validate(ctx, repo, ghost, true)
	assert.True(t, auth.IsInvalidData(err))

	user, err := repo.FindOne(ctx, auth.ByUsername("neo"))
	require.NoError(t, err)
	user.Enabled = false
	_, err = repo.Update(ctx, user)
	require.NoError(t, err)

	_, err = h.Validate(ctx, repo, refresh, true)
	assert.True(t, auth.IsInvalidData(err))
}

func TestBuildInCallbackNotSupported(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Callback(context.Background(), repository.NewMemoryUsers(), "code")
	assert.True(t, auth.IsDoesNotSupport(err))
}

func TestBuildInCanceledContext(t *testing.T) {
	repo := new(MockUserRepository)
	h := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Login(ctx, repo, "neo", "pw")
	assert.True(t, auth.IsUnknown(err))
	repo.AssertNotCalled(t, "FindOne", mock.Anything, mock.Anything)
}

func TestBuildInActivityEvents(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUsers()
	sink := &recordingSink{}
	h := newTestHandler(t, auth.WithActivitySink(sink))

	registerNeo(t, h, repo)
	refresh := loginNeo(t, h, repo)
	_, err := h.Login(ctx, repo, "neo", "nope")
	require.Error(t, err)
	_, err = h.Refresh(ctx, repo, refresh)
	require.NoError(t, err)
	require.NoError(t, h.Logout(ctx, repo, refresh))

	assert.Equal(t, []auth.ActivityEventType{
		auth.ActivityEventRegisterSuccess,
		auth.ActivityEventLoginSuccess,
		auth.ActivityEventLoginFailure,
		auth.ActivityEventRefreshSuccess,
		auth.ActivityEventLogoutSuccess,
	}, sink.types())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	failure := sink.events[2]
	assert.Equal(t, auth.KindUnauthorized, failure.Kind)
	assert.Equal(t, "neo", failure.Username)
	assert.Equal(t, auth.BuildInHandlerName, failure.Handler)
	assert.False(t, failure.OccurredAt.IsZero())
}
