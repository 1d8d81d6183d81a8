package auth

import (
	"fmt"
	"sort"
	"sync"

	"github.com/goliatone/go-errors"
)

// NewHandler instantiates the handler for kind. Handlers still need
// InitConfig before use.
func NewHandler(kind HandlerKind, opts ...HandlerOption) (AuthHandler, error) {
	switch kind {
	case KindBuildIn:
		return NewBuildInAuthHandler(opts...), nil
	case KindOAuth:
		return nil, doesNotSupport(OpInitConfig, "handler kind OAuth is not available")
	default:
		return nil, configInvalid(fmt.Sprintf("unknown handler kind %q", kind), nil)
	}
}

// Handlers holds the initialized handlers keyed by name
type Handlers struct {
	mu      sync.RWMutex
	byName  map[string]AuthHandler
	order   []string
	appName string
}

// NewHandlers returns an empty registry
func NewHandlers(appName string) *Handlers {
	return &Handlers{
		byName:  make(map[string]AuthHandler),
		appName: appName,
	}
}

// LoadHandlers builds and initializes a handler for every enabled entry of
// configs. Any failure aborts the load.
func LoadHandlers(configs []AuthConfig, appName string, opts ...HandlerOption) (*Handlers, error) {
	registry := NewHandlers(appName)

	for i, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		handler, err := NewHandler(cfg.Kind, opts...)
		if err != nil {
			return nil, handlerLoadError(i, cfg, err)
		}

		if err := handler.InitConfig(cfg, appName); err != nil {
			return nil, handlerLoadError(i, cfg, err)
		}

		if err := registry.Register(handler); err != nil {
			return nil, handlerLoadError(i, cfg, err)
		}
	}

	if registry.Len() == 0 {
		return nil, configInvalid("no enabled auth handler configured", nil)
	}

	return registry, nil
}

func handlerLoadError(index int, cfg AuthConfig, err error) error {
	var rich *errors.Error
	if !errors.As(err, &rich) || rich == nil {
		return configInvalid("invalid auth handler config", err)
	}
	return rich.Clone().WithMetadata(map[string]any{
		"handler_index": index,
		"handler_kind":  string(cfg.Kind),
	})
}

// Register adds an initialized handler. Names must be unique.
func (r *Handlers) Register(handler AuthHandler) error {
	if handler == nil {
		return configInvalid("handler must not be nil", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := handler.Name()
	if _, exists := r.byName[name]; exists {
		return configInvalid(fmt.Sprintf("duplicate auth handler %q", name), nil)
	}

	r.byName[name] = handler
	r.order = append(r.order, name)
	return nil
}

// Get returns the handler registered under name
func (r *Handlers) Get(name string) (AuthHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// MustGet panics when name is not registered
func (r *Handlers) MustGet(name string) AuthHandler {
	h, ok := r.Get(name)
	if !ok {
		panic(fmt.Sprintf("auth handler %q not registered", name))
	}
	return h
}

// Default returns the first registered handler
func (r *Handlers) Default() (AuthHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return nil, false
	}
	return r.byName[r.order[0]], true
}

// Names returns the registered names sorted
func (r *Handlers) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// All returns the handlers in registration order
func (r *Handlers) All() []AuthHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AuthHandler, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered handlers
func (r *Handlers) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// AppName is the issuer used by the registered handlers
func (r *Handlers) AppName() string {
	return r.appName
}
