package auth

import "github.com/rs/zerolog"

// ZerologLogger adapts a zerolog.Logger to Logger
type ZerologLogger struct {
	zl zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger tags zl with the auth component
func NewZerologLogger(zl zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{zl: zl.With().Str("component", "auth").Logger()}
}

func (l *ZerologLogger) Debug(msg string, args ...any) {
	l.zl.Debug().Fields(args).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, args ...any) {
	l.zl.Info().Fields(args).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, args ...any) {
	l.zl.Warn().Fields(args).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, args ...any) {
	l.zl.Error().Fields(args).Msg(msg)
}
