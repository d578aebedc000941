package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DBTX is the subset of database/sql used by Postgres. Both *sql.DB and
// *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores refresh session fingerprints in the refresh_sessions table.
// Expired rows are ignored by Contains and reclaimed by Purge.
type Postgres struct {
	db  DBTX
	now func() time.Time
}

// NewPostgres returns a Store bound to db. The schema is created by the
// migrations package.
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// Add implements Store.
func (p *Postgres) Add(ctx context.Context, token string, expiresAt time.Time) error {
	if _, live := ttlUntil(expiresAt, p.now()); !live {
		return nil
	}
	var expiry sql.NullTime
	if !expiresAt.IsZero() {
		expiry = sql.NullTime{Time: expiresAt.UTC(), Valid: true}
	}

	query := `
		INSERT INTO refresh_sessions (fingerprint, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (fingerprint) DO NOTHING
	`
	if _, err := p.db.ExecContext(ctx, query, Fingerprint(token), expiry); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove implements Store.
func (p *Postgres) Remove(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_sessions
		WHERE fingerprint = $1
	`
	if _, err := p.db.ExecContext(ctx, query, Fingerprint(token)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Contains implements Store.
func (p *Postgres) Contains(ctx context.Context, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refresh_sessions
			WHERE fingerprint = $1 AND (expires_at IS NULL OR expires_at > $2)
		)
	`
	var exists bool
	if err := p.db.QueryRowContext(ctx, query, Fingerprint(token), p.now().UTC()).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return exists, nil
}

// Purge deletes rows whose expiry has passed and returns how many went away.
func (p *Postgres) Purge(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_sessions
		WHERE expires_at IS NOT NULL AND expires_at <= $1
	`
	res, err := p.db.ExecContext(ctx, query, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}
