// Package password implements secret hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Secret policy beyond
// non-emptiness is the Engine's concern.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets — callers supply plaintext and receive hashes.
//   - Import any other authgate package.
//   - Log plaintext secrets or hash parameters at runtime.
package password
