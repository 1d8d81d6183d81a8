package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/neonet-app/go-auth"
	"github.com/neonet-app/go-auth/repository"
	"github.com/neonet-app/go-auth/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const handlerPath = "/api/auth/" + auth.BuildInHandlerName

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Warn(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}

func authConfig(requireZKP bool) auth.AuthConfig {
	return auth.AuthConfig{
		Kind:       auth.KindBuildIn,
		Enabled:    true,
		RequireZKP: requireZKP,
		ExtraFields: map[string]string{
			auth.FieldRefreshTokenSign: "refresh-secret",
			auth.FieldAccessTokenSign:  "access-secret",
			auth.FieldRefreshTokenExp:  "7200",
			auth.FieldAccessTokenExp:   "300",
		},
	}
}

func setupApp(t *testing.T, requireZKP bool) (*fiber.App, *repository.MemoryUsers) {
	t.Helper()

	handlers, err := auth.LoadHandlers(
		[]auth.AuthConfig{authConfig(requireZKP)},
		"neonet",
		auth.WithLogger(quietLogger{}),
		auth.WithPasswordCost(bcrypt.MinCost),
	)
	require.NoError(t, err)

	repo := repository.NewMemoryUsers()
	controller := web.NewController(handlers, repo, web.WithLogger(quietLogger{}), web.WithDebug(true))
	return web.NewApp(controller), repo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decodeError(t *testing.T, raw []byte) web.ErrorResponse {
	t.Helper()
	var out web.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func register(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, handlerPath+"/register", web.RegisterPayload{
		Username: "neo",
		Password: "follow-the-rabbit",
	}, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, raw := doJSON(t, app, http.MethodPost, handlerPath+"/login", web.LoginPayload{
		Username: "neo",
		Password: "follow-the-rabbit",
	}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out web.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestListHandlers(t *testing.T) {
	app, _ := setupApp(t, false)

	resp, raw := doJSON(t, app, http.MethodGet, "/api/auth/handlers", nil, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out []web.HandlerInfo
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out, 1)
	assert.Equal(t, auth.BuildInHandlerName, out[0].Name)
	assert.Equal(t, string(auth.KindBuildIn), out[0].Kind)
}

func TestControllerFlow(t *testing.T) {
	app, repo := setupApp(t, false)

	register(t, app)
	user, err := repo.FindOne(context.Background(), auth.ByUsername("neo"))
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, user.Role)

	refresh := login(t, app)

	resp, raw := doJSON(t, app, http.MethodPost, handlerPath+"/refresh", nil, refresh)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var access web.AccessTokenResponse
	require.NoError(t, json.Unmarshal(raw, &access))
	assert.NotEmpty(t, access.AccessToken)
	assert.Equal(t, "Bearer", access.TokenType)

	resp, raw = doJSON(t, app, http.MethodGet, handlerPath+"/me", nil, access.AccessToken)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var me map[string]any
	require.NoError(t, json.Unmarshal(raw, &me))
	assert.Equal(t, "neo", me["username"])
	assert.NotContains(t, me, "password_hash")
	assert.NotContains(t, me, "refresh_tokens")

	resp, _ = doJSON(t, app, http.MethodGet, handlerPath+"/me", nil, refresh)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, handlerPath+"/logout", web.TokenPayload{Token: refresh}, "")
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, raw = doJSON(t, app, http.MethodPost, handlerPath+"/refresh", nil, refresh)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, auth.TextCodeInvalidData, decodeError(t, raw).Code)
}

func TestControllerErrors(t *testing.T) {
	app, _ := setupApp(t, false)
	register(t, app)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		token  string
		status int
		code   string
	}{
		{
			name:   "unknown handler",
			method: http.MethodPost,
			path:   "/api/auth/Nope/login",
			body:   web.LoginPayload{Username: "neo", Password: "x"},
			status: fiber.StatusNotFound,
			code:   web.TextCodeHandlerNotFound,
		},
		{
			name:   "wrong password",
			method: http.MethodPost,
			path:   handlerPath + "/login",
			body:   web.LoginPayload{Username: "neo", Password: "wrong"},
			status: fiber.StatusUnauthorized,
			code:   auth.TextCodeUnauthorized,
		},
		{
			name:   "empty credentials",
			method: http.MethodPost,
			path:   handlerPath + "/login",
			body:   web.LoginPayload{},
			status: fiber.StatusBadRequest,
			code:   auth.TextCodeInvalidData,
		},
		{
			name:   "duplicate register",
			method: http.MethodPost,
			path:   handlerPath + "/register",
			body:   web.RegisterPayload{Username: "neo", Password: "again-and-again"},
			status: fiber.StatusBadRequest,
			code:   auth.TextCodeInvalidData,
		},
		{
			name:   "callback",
			method: http.MethodGet,
			path:   handlerPath + "/callback?code=abc",
			status: fiber.StatusNotImplemented,
			code:   auth.TextCodeDoesNotSupport,
		},
		{
			name:   "refresh without token",
			method: http.MethodPost,
			path:   handlerPath + "/refresh",
			status: fiber.StatusUnauthorized,
			code:   web.TextCodeMissingToken,
		},
		{
			name:   "me with garbage token",
			method: http.MethodGet,
			path:   handlerPath + "/me",
			token:  "garbage",
			status: fiber.StatusUnauthorized,
			code:   auth.TextCodeInvalidData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, app, tt.method, tt.path, tt.body, tt.token)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, raw).Code)
		})
	}
}

func TestRegisterRequiresZKPAck(t *testing.T) {
	app, repo := setupApp(t, true)

	resp, raw := doJSON(t, app, http.MethodPost, handlerPath+"/register", web.RegisterPayload{
		Username: "neo",
		Password: "follow-the-rabbit",
	}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, auth.TextCodeInvalidData, decodeError(t, raw).Code)
	assert.Equal(t, 0, repo.Len())

	resp, _ = doJSON(t, app, http.MethodPost, handlerPath+"/register", web.RegisterPayload{
		Username: "neo",
		Password: "follow-the-rabbit",
		ZKPAck:   true,
	}, "")
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, web.StatusFor(auth.ErrInvalidData))
	assert.Equal(t, fiber.StatusUnauthorized, web.StatusFor(auth.ErrUnauthorized))
	assert.Equal(t, fiber.StatusNotImplemented, web.StatusFor(auth.ErrDoesNotSupport))
	assert.Equal(t, fiber.StatusInternalServerError, web.StatusFor(auth.ErrUnknown))
	assert.Equal(t, fiber.StatusNotFound, web.StatusFor(web.ErrHandlerNotFound))
	assert.Equal(t, fiber.StatusTeapot, web.StatusFor(fiber.NewError(fiber.StatusTeapot, "tea")))
	assert.Equal(t, fiber.StatusInternalServerError, web.StatusFor(assert.AnError))
}
