package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ActivityEventType names an audited handler outcome
type ActivityEventType string

const (
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure ActivityEventType = "auth.register.failure"
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventLogoutSuccess   ActivityEventType = "auth.logout.success"
	ActivityEventLogoutFailure   ActivityEventType = "auth.logout.failure"
	ActivityEventRefreshSuccess  ActivityEventType = "auth.refresh.success"
	ActivityEventRefreshFailure  ActivityEventType = "auth.refresh.failure"
	ActivityEventValidateFailure ActivityEventType = "auth.validate.failure"
)

// IsFailure reports whether the event records a rejected operation
func (t ActivityEventType) IsFailure() bool {
	switch t {
	case ActivityEventRegisterFailure,
		ActivityEventLoginFailure,
		ActivityEventLogoutFailure,
		ActivityEventRefreshFailure,
		ActivityEventValidateFailure:
		return true
	}
	return false
}

// ActivityEvent is one audited handler outcome. Kind is only set on
// failures. Tokens and passwords are never part of an event.
type ActivityEvent struct {
	EventType  ActivityEventType
	Handler    string
	UserID     string
	Username   string
	Kind       ErrorKind
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink receives activity events. Sink errors are logged by the
// handler and never fail the operation.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to ActivitySink
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiActivitySink fans an event out to every sink and joins their errors
type MultiActivitySink []ActivitySink

func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ZerologActivitySink writes events as structured log lines. Failures are
// logged at warn level.
type ZerologActivitySink struct {
	zl zerolog.Logger
}

// NewZerologActivitySink tags zl with the activity component
func NewZerologActivitySink(zl zerolog.Logger) *ZerologActivitySink {
	return &ZerologActivitySink{zl: zl.With().Str("component", "auth.activity").Logger()}
}

func (s *ZerologActivitySink) Record(_ context.Context, event ActivityEvent) error {
	e := s.zl.Info()
	if event.EventType.IsFailure() {
		e = s.zl.Warn().Str("kind", string(event.Kind))
	}

	e = e.Str("event", string(event.EventType)).
		Str("handler", event.Handler).
		Time("occurred_at", event.OccurredAt)

	if event.UserID != "" {
		e = e.Str("user_id", event.UserID)
	}
	if event.Username != "" {
		e = e.Str("username", event.Username)
	}
	if len(event.Metadata) > 0 {
		e = e.Fields(event.Metadata)
	}

	e.Msg("auth activity")
	return nil
}

type discardActivity struct{}

func (discardActivity) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return discardActivity{}
	}
	return s
}
