package password

import "errors"

// DefaultMaxPasswordBytes caps the secret length accepted by Hash and Verify
// so oversized inputs cannot be used to burn KDF time.
const DefaultMaxPasswordBytes = 1024

var (
	// ErrUnsupportedHash is returned when a stored hash is in no known format.
	ErrUnsupportedHash = errors.New("unsupported password hash format")
	// ErrTooLong is returned when a presented secret exceeds the configured cap.
	ErrTooLong = errors.New("password exceeds maximum length")
	// ErrEmpty is returned when hashing an empty secret.
	ErrEmpty = errors.New("password must not be empty")
)

// Verifier compares a plaintext secret with a stored hash. A mismatch is
// (false, nil); an error means the hash could not be evaluated at all.
type Verifier interface {
	Verify(password string, encodedHash string) (bool, error)
}

// Hasher produces stored hashes that the matching Verifier accepts.
type Hasher interface {
	Verifier
	Hash(password string) (string, error)
}
