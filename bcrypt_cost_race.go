//go:build race

package auth

import "golang.org/x/crypto/bcrypt"

// race builds run the suites with strict timeouts
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
