package auth

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Logger receives a message followed by alternating key/value pairs
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type bcryptAuthenticator struct {
	cost int
}

// NewPasswordAuthenticator returns a bcrypt PasswordAuthenticator. A zero
// cost uses the package default.
func NewPasswordAuthenticator(cost int) PasswordAuthenticator {
	return bcryptAuthenticator{cost: cost}
}

func (b bcryptAuthenticator) HashPassword(password string) (string, error) {
	if b.cost == 0 {
		return HashPassword(password)
	}
	return HashPasswordWithCost(password, b.cost)
}

func (b bcryptAuthenticator) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}

type defLogger struct {
	mu  *sync.Mutex
	out io.Writer
}

// NewDefaultLogger returns the plain text Logger used when none is supplied.
// A nil out writes to stdout.
func NewDefaultLogger(out io.Writer) Logger {
	return newDefLogger(out)
}

func newDefLogger(out io.Writer) defLogger {
	if out == nil {
		out = os.Stdout
	}
	return defLogger{mu: &sync.Mutex{}, out: out}
}

func (d defLogger) Error(msg string, args ...any) {
	d.write("ERR", msg, args)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.write("WRN", msg, args)
}

func (d defLogger) Info(msg string, args ...any) {
	d.write("INF", msg, args)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.write("DBG", msg, args)
}

func (d defLogger) write(level, msg string, args []any) {
	line := fmt.Sprintf("[%s] AUTH %s%s", level, msg, formatPairs(args))
	if d.mu == nil {
		fmt.Fprintln(os.Stdout, line)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.out, line)
}

func formatPairs(args []any) string {
	if len(args) == 0 {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fmt.Fprintf(&b, " %v", args[i])
			break
		}
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	return b.String()
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return newDefLogger(nil)
	}
	return l
}
