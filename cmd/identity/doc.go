// Package identity owns liftlog's persistent users: lookup by username or
// owner, creation alongside a permanent owner, and credential verification.
package identity
