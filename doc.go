// Package taskauth implements the authentication core of a task management
// backend: credential validation, JWT access/refresh token issuance and
// verification, email verification and password reset codes, and a request
// guard that resolves bearer tokens into identities.
//
// Persistence goes through a RepositoryManager backed by bun; token state is
// a singleton row per user where each issuance overwrites only its own field
// group. HTTP controllers for the auth and task surfaces are included but
// optional, consumers can wire the AuthService directly.
package taskauth
