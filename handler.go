package auth

import (
	"context"
)

// AuthHandler is the contract shared by every authentication strategy.
// InitConfig must succeed exactly once before any other call; afterwards
// implementations are safe for concurrent use.
type AuthHandler interface {
	Name() string
	Version() string
	Description() string
	Kind() HandlerKind
	RegisterRequireZKP() bool

	InitConfig(cfg AuthConfig, appName string) error

	Login(ctx context.Context, repo UserRepository, username, password string) (LoginResult, error)
	Callback(ctx context.Context, repo UserRepository, code string) (string, error)
	Register(ctx context.Context, repo UserRepository, input CreateUser, role Role) error
	Logout(ctx context.Context, repo UserRepository, token string) error
	Validate(ctx context.Context, repo UserRepository, token string, refresh bool) (*User, error)
	Refresh(ctx context.Context, repo UserRepository, token string) (string, error)
}

// LoginResultKind tells how a login completed
type LoginResultKind string

const (
	LoginResultJWT      LoginResultKind = "jwt"
	LoginResultRedirect LoginResultKind = "redirect"
)

// LoginResult is either a signed refresh token or a redirect URL for
// delegated flows
type LoginResult struct {
	Kind     LoginResultKind `json:"kind"`
	Token    string          `json:"token,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
}

// JWTResult wraps a signed refresh token
func JWTResult(token string) LoginResult {
	return LoginResult{Kind: LoginResultJWT, Token: token}
}

// RedirectResult wraps a provider URL
func RedirectResult(url string) LoginResult {
	return LoginResult{Kind: LoginResultRedirect, Redirect: url}
}

// IsRedirect reports whether the caller has to follow a redirect
func (r LoginResult) IsRedirect() bool {
	return r.Kind == LoginResultRedirect
}

// HandlerOption configures handlers built by NewHandler
type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	logger       Logger
	activitySink ActivitySink
	passwordCost int
}

// WithLogger sets the handler logger
func WithLogger(l Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.logger = l
	}
}

// WithActivitySink sets the audit sink
func WithActivitySink(s ActivitySink) HandlerOption {
	return func(o *handlerOptions) {
		o.activitySink = s
	}
}

// WithPasswordCost sets the bcrypt cost used on register
func WithPasswordCost(cost int) HandlerOption {
	return func(o *handlerOptions) {
		o.passwordCost = cost
	}
}

func resolveHandlerOptions(opts []HandlerOption) handlerOptions {
	o := handlerOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	o.logger = normalizeLogger(o.logger)
	o.activitySink = normalizeActivitySink(o.activitySink)
	return o
}
