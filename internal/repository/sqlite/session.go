package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/model"
	"github.com/sakif/comicshelf/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession persists a new session.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`,
		session.ID, session.UserID, session.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session: %w", err)
	}
	return nil
}

// GetActiveSession returns the session only if it expires strictly after now.
// Expired and nonexistent sessions are indistinguishable to the caller:
// both come back as apperror.ErrNotFound. The expiry check runs in Go
// rather than SQL so it never depends on how the driver serializes times.
func (db *DB) GetActiveSession(ctx context.Context, id string, now time.Time) (*model.Session, error) {
	var s model.Session
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.ExpiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "id")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	if !s.ExpiresAt.After(now) {
		return nil, apperror.NotFound("session", "id")
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting an unknown id is not an error; logout
// must succeed whether or not a matching row existed.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}
