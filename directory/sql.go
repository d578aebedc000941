package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/tokengate"
)

// DBTX is the subset of database/sql used by SQL. Both *sql.DB and *sql.Tx
// satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQL reads accounts from the users table. Roles are returned as stored;
// the engine rejects values outside the known set.
type SQL struct {
	db DBTX
}

var _ tokengate.Directory = (*SQL)(nil)

// NewSQL returns a Directory bound to db.
func NewSQL(db DBTX) *SQL {
	return &SQL{db: db}
}

// FindByIdentifier implements tokengate.Directory.
func (s *SQL) FindByIdentifier(ctx context.Context, identifier string) (tokengate.UserRecord, error) {
	query := `
		SELECT id, email, role, secret_hash
		FROM users
		WHERE email = $1
	`
	return s.scanOne(ctx, query, normalizeIdentifier(identifier))
}

// FindByID implements tokengate.Directory.
func (s *SQL) FindByID(ctx context.Context, id string) (tokengate.UserRecord, error) {
	query := `
		SELECT id, email, role, secret_hash
		FROM users
		WHERE id = $1
	`
	return s.scanOne(ctx, query, id)
}

func (s *SQL) scanOne(ctx context.Context, query string, arg string) (tokengate.UserRecord, error) {
	var (
		rec  tokengate.UserRecord
		role string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&rec.ID, &rec.Identifier, &role, &rec.SecretHash)
	if errors.Is(err, sql.ErrNoRows) {
		return tokengate.UserRecord{}, tokengate.ErrIdentityNotFound
	}
	if err != nil {
		return tokengate.UserRecord{}, fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}
	rec.Role = tokengate.Role(strings.TrimSpace(role))
	return rec, nil
}

// Upsert writes rec, replacing the email, role and hash of an existing id.
// It is used to seed accounts.
func (s *SQL) Upsert(ctx context.Context, rec tokengate.UserRecord) error {
	if rec.ID == "" || normalizeIdentifier(rec.Identifier) == "" {
		return ErrInvalidRecord
	}
	query := `
		INSERT INTO users (id, email, role, secret_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, role = EXCLUDED.role, secret_hash = EXCLUDED.secret_hash
	`
	_, err := s.db.ExecContext(ctx, query, rec.ID, normalizeIdentifier(rec.Identifier), rec.Role.String(), rec.SecretHash)
	if err != nil {
		return fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}
	return nil
}

// SetRole changes the stored role of id.
func (s *SQL) SetRole(ctx context.Context, id string, role tokengate.Role) error {
	query := `
		UPDATE users
		SET role = $2
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query, id, role.String())
	if err != nil {
		return fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", tokengate.ErrUnavailable, err)
	}
	if n == 0 {
		return tokengate.ErrIdentityNotFound
	}
	return nil
}
