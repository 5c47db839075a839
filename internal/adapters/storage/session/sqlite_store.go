package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "trainerdash/internal/domain/session"
)

const dateLayout = "2006-01-02T15:04:05.999999999Z07:00"

// SQLiteStore implements Store on the dashboard_session table.
type SQLiteStore struct {
	db     SQLDB
	sealer *Sealer
}

// NewSQLiteStore creates a session store that seals tokens with sealer.
func NewSQLiteStore(db SQLDB, sealer *Sealer) *SQLiteStore {
	return &SQLiteStore{db: db, sealer: sealer}
}

// Save inserts or replaces a session.
func (s *SQLiteStore) Save(ctx context.Context, sess domain.Session) error {
	sealed, err := s.sealer.Seal(sess.Token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO dashboard_session (id, sealed_token, user_id, user_name, user_email, user_role, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sealed, sess.User.ID, sess.User.Name, sess.User.Email, sess.User.Role,
		sess.CreatedAt.UTC().Format(dateLayout), sess.ExpiresAt.UTC().Format(dateLayout))
	return err
}

// Get restores a session and unseals its token.
// POST: an expired row is deleted and reported as domain.ErrExpired
func (s *SQLiteStore) Get(ctx context.Context, id string, now time.Time) (domain.Session, error) {
	var sess domain.Session
	var sealed []byte
	var created, expires string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sealed_token, user_id, user_name, user_email, user_role, created_at, expires_at
		 FROM dashboard_session WHERE id = ?`, id).
		Scan(&sess.ID, &sealed, &sess.User.ID, &sess.User.Name, &sess.User.Email, &sess.User.Role, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	if sess.CreatedAt, err = time.Parse(dateLayout, created); err != nil {
		return domain.Session{}, err
	}
	if sess.ExpiresAt, err = time.Parse(dateLayout, expires); err != nil {
		return domain.Session{}, err
	}
	if sess.Expired(now) {
		if err := s.Delete(ctx, id); err != nil {
			return domain.Session{}, err
		}
		return domain.Session{}, domain.ErrExpired
	}
	if sess.Token, err = s.sealer.Open(sealed); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dashboard_session WHERE id = ?`, id)
	return err
}

// DeleteExpired removes every session whose expiry is at or before now.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboard_session WHERE expires_at <= ?`, now.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
