// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes use the PHC string form
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<salt>$<key>
//
// A stored hash is treated as untrusted input on Verify: anything that does not
// parse, or that asks for far more work than the configured cost, is refused
// with ErrInvalidHash.
package password
