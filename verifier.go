package tokengate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/tokengate/password"
	"github.com/google/uuid"
)

// CredentialVerifier checks an (identifier, secret) pair against a Directory.
// It is safe for concurrent use.
type CredentialVerifier struct {
	directory Directory
	passwords password.Verifier
	dummyHash string
}

// NewCredentialVerifier builds a verifier over dir. When pw can also hash
// (see [password.Hasher]) a throwaway hash is derived once so that lookups for
// unknown identifiers still pay for one comparison.
func NewCredentialVerifier(dir Directory, pw password.Verifier) (*CredentialVerifier, error) {
	if dir == nil {
		return nil, errors.New("credential verifier requires a directory")
	}
	if pw == nil {
		return nil, errors.New("credential verifier requires a password verifier")
	}

	v := &CredentialVerifier{directory: dir, passwords: pw}
	if hasher, ok := pw.(password.Hasher); ok {
		dummy, err := hasher.Hash(uuid.NewString())
		if err != nil {
			return nil, fmt.Errorf("derive dummy hash: %w", err)
		}
		v.dummyHash = dummy
	}
	return v, nil
}

// Verify resolves identifier and compares secret with the stored hash.
//
// Failures: ErrIdentityNotFound, ErrSecretMismatch, or ErrUnavailable when the
// directory could not be queried. A stored hash the verifier cannot evaluate
// counts as a mismatch.
func (v *CredentialVerifier) Verify(ctx context.Context, identifier, secret string) (Identity, error) {
	identifier = strings.TrimSpace(identifier)

	rec, err := v.directory.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			v.burn(secret)
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ok, err := v.passwords.Verify(secret, rec.SecretHash)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrSecretMismatch, err)
	}
	if !ok {
		return Identity{}, ErrSecretMismatch
	}

	return Identity{SubjectID: rec.ID, Role: rec.Role}, nil
}

// Resolve looks up the current role of subjectID. Failures are
// ErrIdentityNotFound or ErrUnavailable.
func (v *CredentialVerifier) Resolve(ctx context.Context, subjectID string) (Identity, error) {
	rec, err := v.directory.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{}, ErrIdentityNotFound
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return Identity{SubjectID: subjectID, Role: rec.Role}, nil
}

func (v *CredentialVerifier) burn(secret string) {
	if v.dummyHash == "" {
		return
	}
	_, _ = v.passwords.Verify(secret, v.dummyHash)
}

func credentialRejected(err error) bool {
	return errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrSecretMismatch)
}
