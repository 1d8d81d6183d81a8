package auth

import (
	"context"
	"strconv"
	"strings"
	"time"
)

const (
	BuildInHandlerName        = "BuildInAuthHandler"
	BuildInHandlerVersion     = "0.1.0"
	BuildInHandlerDescription = "Username and password authentication with signed refresh and access tokens"
)

// Extra fields read by the BuildIn handler besides the token settings
const (
	FieldPasswordCost = "password_cost"
	FieldUseHashid    = "use_hashid"
)

// BuildInAuthHandler authenticates users holding a bcrypt password hash in
// the repository and issues HS512 refresh and access tokens.
type BuildInAuthHandler struct {
	opts        handlerOptions
	passwords   PasswordAuthenticator
	tokens      TokenConfig
	appName     string
	requireZKP  bool
	useHashid   bool
	initialized bool
}

var _ AuthHandler = (*BuildInAuthHandler)(nil)

// NewBuildInAuthHandler returns an uninitialized handler
func NewBuildInAuthHandler(opts ...HandlerOption) *BuildInAuthHandler {
	o := resolveHandlerOptions(opts)
	return &BuildInAuthHandler{
		opts:      o,
		passwords: NewPasswordAuthenticator(o.passwordCost),
	}
}

func (h *BuildInAuthHandler) Name() string {
	return BuildInHandlerName
}

func (h *BuildInAuthHandler) Version() string {
	return BuildInHandlerVersion
}

func (h *BuildInAuthHandler) Description() string {
	return BuildInHandlerDescription
}

func (h *BuildInAuthHandler) Kind() HandlerKind {
	return KindBuildIn
}

func (h *BuildInAuthHandler) RegisterRequireZKP() bool {
	return h.requireZKP
}

// InitConfig validates cfg and loads the token settings from its extra
// fields. It fails when called twice.
func (h *BuildInAuthHandler) InitConfig(cfg AuthConfig, appName string) error {
	if h.initialized {
		return configInvalid("handler already initialized", nil)
	}

	if !cfg.Enabled {
		return configInvalid("handler is disabled", nil)
	}

	if cfg.Kind != h.Kind() {
		return configInvalid("handler kind mismatch: "+string(cfg.Kind), nil)
	}

	if cfg.Version != "" && cfg.Version != h.Version() {
		return configInvalid("handler version mismatch: "+cfg.Version, nil)
	}

	if strings.TrimSpace(appName) == "" {
		return configInvalid("app name is required", nil)
	}

	tokens, err := TokenConfigFromFields(cfg.ExtraFields)
	if err != nil {
		return err
	}

	if raw, ok := cfg.Field(FieldPasswordCost); ok && strings.TrimSpace(raw) != "" {
		cost, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return configInvalid(FieldPasswordCost+" must be an integer", err)
		}
		h.passwords = NewPasswordAuthenticator(cost)
	}

	if raw, ok := cfg.Field(FieldUseHashid); ok && strings.TrimSpace(raw) != "" {
		useHashid, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return configInvalid(FieldUseHashid+" must be a boolean", err)
		}
		h.useHashid = useHashid
	}

	h.tokens = tokens
	h.appName = appName
	h.requireZKP = cfg.RequireZKP
	h.initialized = true

	h.opts.logger.Info("auth handler initialized",
		"handler", h.Name(),
		"app", appName,
		"refresh_ttl", tokens.TTL(true).String(),
		"access_ttl", tokens.TTL(false).String(),
	)

	return nil
}

// Callback is not part of the credential flow
func (h *BuildInAuthHandler) Callback(ctx context.Context, repo UserRepository, code string) (string, error) {
	return "", doesNotSupport(OpCallback, "callback is not supported by "+h.Name())
}

// TokenConfig returns the active token settings
func (h *BuildInAuthHandler) TokenConfig() TokenConfig {
	return h.tokens
}

func (h *BuildInAuthHandler) ready(op Operation) error {
	if !h.initialized {
		return unknown(op, "handler not initialized", nil)
	}
	return nil
}

func (h *BuildInAuthHandler) record(ctx context.Context, event ActivityEvent) {
	event.Handler = h.Name()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	if err := h.opts.activitySink.Record(ctx, event); err != nil {
		h.opts.logger.Warn("activity sink failed",
			"event", string(event.EventType),
			"error", err,
		)
	}
}

func (h *BuildInAuthHandler) fail(ctx context.Context, event ActivityEventType, username string, err error) error {
	kind := KindOf(err)
	h.opts.logger.Debug("auth operation failed",
		"handler", h.Name(),
		"event", string(event),
		"kind", string(kind),
		"error", err,
	)

	h.record(ctx, ActivityEvent{
		EventType: event,
		Username:  username,
		Kind:      kind,
	})

	return err
}

func checkContext(ctx context.Context, op Operation) error {
	select {
	case <-ctx.Done():
		return unknown(op, "context done", ctx.Err())
	default:
		return nil
	}
}
