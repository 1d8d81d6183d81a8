package auth

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// bcrypt ignores input beyond this size
const maxPasswordBytes = 72

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

func maxBytes(n int) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if len(s) > n {
			return fmt.Errorf("must be at most %d bytes", n)
		}
		return nil
	}
}

// looksLikePattern reports whether a username would be read as a search
// pattern by the repository
func looksLikePattern(username string) bool {
	return strings.HasPrefix(username, "/") || strings.HasSuffix(username, "/")
}
