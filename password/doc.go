// Package password compares presented secrets against stored hash
// representations owned by the user directory.
//
// # Supported formats
//
// Argon2id hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes use the modular crypt format ($2a$, $2b$, $2y$). [Auto]
// dispatches on the stored prefix so a directory can hold both while it
// migrates. Argon2id parameters are read back from each stored hash, so
// raising the configured cost never invalidates existing rows.
//
// # What this package must NOT do
//
//   - Store or retrieve secrets; callers supply plaintext and stored hashes.
//   - Enforce secret policy (length, reuse); the directory owns that.
//   - Import any other tokengate package.
package password
