// Package auth provides pluggable user authentication: handlers that log
// users in with a credential, issue signed refresh and access tokens,
// validate and refresh them and revoke refresh tokens on logout.
//
// Handlers:
//   - AuthHandler is the contract every strategy implements. Handlers are
//     built from AuthConfig entries by LoadHandlers, which calls InitConfig
//     once per handler and fails on the first bad entry.
//   - BuildInAuthHandler stores a bcrypt hash per user and signs HS512
//     tokens. Refresh and access tokens use distinct secrets and carry a
//     refresh claim that is checked against the requested mode.
//
// Tokens:
//   - A successful login appends the refresh token to the user record.
//     Validating a refresh token requires it to still be listed there, so
//     logout revokes it. Access tokens are stateless and live until they
//     expire.
//
// Storage:
//   - Repository is a generic store contract with a sparse search type.
//     NewUsersRepository implements it on bun (SQLite, PostgreSQL) and the
//     repository package adds a mutex guarded in-memory implementation.
//
// Activity sinks:
//   - ActivitySink receives register, login, logout, refresh and validate
//     events. Sinks run best-effort (errors are logged).
package auth
