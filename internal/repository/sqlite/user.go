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

var _ repository.UserRepository = (*DB)(nil)

// UpsertUser creates or refreshes a user keyed on github_id.
//
// The internal id is derived from the GitHub id, so the insert-if-absent
// step can never create a second row for the same account: a concurrent
// duplicate insert targets the same primary key and is ignored. The
// unconditional update then refreshes login, name, and avatar, so re-login
// always reflects the latest GitHub profile.
func (db *DB) UpsertUser(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upserting user: github id is required")
	}
	id := model.UserID(user.GitHubID)
	now := time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, github_id, login, name, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(github_id) DO NOTHING`,
		id, user.GitHubID, user.Login, user.Name, user.AvatarURL, now, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	_, err = db.conn.ExecContext(ctx,
		`UPDATE users SET login = ?, name = ?, avatar_url = ?, updated_at = ?
		 WHERE github_id = ?`,
		user.Login, user.Name, user.AvatarURL, now, user.GitHubID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user (githubID=%d): %w", user.GitHubID, err)
	}

	// Read back the canonical row so the caller sees id and timestamps.
	stored, err := db.getUserByGitHubID(ctx, user.GitHubID)
	if err != nil {
		return err
	}
	*user = *stored
	return nil
}

// GetUserByID returns the user with the given internal id, or
// apperror.ErrNotFound.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, name, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`, id), id)
}

func (db *DB) getUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, github_id, login, name, avatar_url, created_at, updated_at
		 FROM users WHERE github_id = ?`, githubID), fmt.Sprintf("github:%d", githubID))
}

func (db *DB) scanUser(row *sql.Row, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.GitHubID, &u.Login, &u.Name, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", key)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", key, err)
	}
	return &u, nil
}
