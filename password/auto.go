package password

import (
	"errors"
	"fmt"
	"strings"
)

// Auto verifies either Argon2id or bcrypt hashes, chosen by the stored
// prefix. New hashes are always Argon2id.
type Auto struct {
	argon  *Argon2
	bcrypt *Bcrypt
}

// NewAuto combines the two hashers. Both are required.
func NewAuto(argon *Argon2, bc *Bcrypt) (*Auto, error) {
	if argon == nil || bc == nil {
		return nil, errors.New("password: auto verifier needs argon2 and bcrypt hashers")
	}
	return &Auto{argon: argon, bcrypt: bc}, nil
}

// NewDefaultAuto builds Auto from DefaultConfig and bcrypt.DefaultCost.
func NewDefaultAuto() (*Auto, error) {
	argon, err := NewArgon2(DefaultConfig())
	if err != nil {
		return nil, err
	}
	bc, err := NewBcrypt(0)
	if err != nil {
		return nil, err
	}
	return NewAuto(argon, bc)
}

// Hash implements Hasher using Argon2id.
func (a *Auto) Hash(password string) (string, error) {
	return a.argon.Hash(password)
}

// Verify implements Verifier.
func (a *Auto) Verify(password string, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, argon2Prefix):
		return a.argon.Verify(password, encodedHash)
	case isBcrypt(encodedHash):
		return a.bcrypt.Verify(password, encodedHash)
	default:
		return false, fmt.Errorf("%w: unrecognized prefix", ErrUnsupportedHash)
	}
}
