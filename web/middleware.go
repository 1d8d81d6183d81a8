package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/neonet-app/go-auth"
)

// DefaultContextKey is the fiber locals key holding the authenticated user
const DefaultContextKey = "user"

// TokenConfig configures RequireToken
type TokenConfig struct {
	// Filter skips the middleware when it returns true
	Filter       func(*fiber.Ctx) bool
	Handlers     *auth.Handlers
	Repo         auth.UserRepository
	ContextKey   string
	AuthScheme   string
	Refresh      bool
	ErrorHandler fiber.ErrorHandler
}

func (c TokenConfig) withDefaults() TokenConfig {
	if c.ContextKey == "" {
		c.ContextKey = DefaultContextKey
	}
	if c.AuthScheme == "" {
		c.AuthScheme = "Bearer"
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = func(ctx *fiber.Ctx, err error) error {
			status := StatusFor(err)
			if status == fiber.StatusBadRequest {
				status = fiber.StatusUnauthorized
			}
			return ctx.Status(status).JSON(responseFor(err))
		}
	}
	return c
}

// RequireToken validates the bearer token with the handler named by the
// :handler route param, or the default handler, and stores the user in
// the request locals.
func RequireToken(cfg TokenConfig) fiber.Handler {
	cfg = cfg.withDefaults()

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		handler, err := resolveHandler(c, cfg.Handlers)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		token, ok := BearerToken(c, cfg.AuthScheme)
		if !ok {
			return cfg.ErrorHandler(c, ErrMissingToken.Clone())
		}

		user, err := handler.Validate(c.UserContext(), cfg.Repo, token, cfg.Refresh)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, user)
		return c.Next()
	}
}

// RequireAccessToken guards routes with access tokens only
func RequireAccessToken(handlers *auth.Handlers, repo auth.UserRepository) fiber.Handler {
	return RequireToken(TokenConfig{Handlers: handlers, Repo: repo})
}

// BearerToken extracts the token of the Authorization header
func BearerToken(c *fiber.Ctx, scheme string) (string, bool) {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return "", false
	}

	prefix, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(prefix, scheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserFromContext returns the user stored by RequireToken
func UserFromContext(c *fiber.Ctx, key ...string) (*auth.User, bool) {
	k := DefaultContextKey
	if len(key) > 0 && key[0] != "" {
		k = key[0]
	}
	user, ok := c.Locals(k).(*auth.User)
	return user, ok && user != nil
}

func resolveHandler(c *fiber.Ctx, handlers *auth.Handlers) (auth.AuthHandler, error) {
	if handlers == nil {
		return nil, ErrHandlerNotFound.Clone()
	}

	if name := c.Params("handler"); name != "" {
		if h, ok := handlers.Get(name); ok {
			return h, nil
		}
		return nil, ErrHandlerNotFound.Clone().WithMetadata(map[string]any{
			"handler": name,
		})
	}

	if h, ok := handlers.Default(); ok {
		return h, nil
	}
	return nil, ErrHandlerNotFound.Clone()
}
