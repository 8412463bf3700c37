// Package session implements liftlog's session lifecycle.
//
// A session is a row in the sessions table plus a signed bearer token (a JWT)
// carried in the liftlog_session cookie. A token is only honoured while it
// verifies, is unexpired and its row still exists, so deleting the row revokes
// it immediately on every instance.
//
// The package provides the token codec, the session/owner store, the cookie
// helpers, the per-request middleware and the hourly expiry sweeper.
package session
