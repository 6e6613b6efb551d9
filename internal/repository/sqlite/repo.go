package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/model"
	"github.com/sakif/comicshelf/internal/repository"
)

var _ repository.RepoRepository = (*DB)(nil)

// CreateRepo inserts a repository registration. Registrations are provisioned
// out of band; the serving path never calls this.
func (db *DB) CreateRepo(ctx context.Context, repo *model.Repo) error {
	if repo.ID == "" {
		repo.ID = xid.New().String()
	}
	if repo.Branch == "" {
		repo.Branch = "main"
	}
	repo.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO repos (id, owner, name, branch, manifest_path, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		repo.ID, repo.Owner, repo.Name, repo.Branch, repo.ManifestPath, repo.UserID, repo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting repo %s/%s: %w", repo.Owner, repo.Name, err)
	}
	return nil
}

// GetRepoByOwnerName looks up a registration by its external (owner, name)
// pair. Returns apperror.ErrNotFound for unregistered repositories.
func (db *DB) GetRepoByOwnerName(ctx context.Context, owner, name string) (*model.Repo, error) {
	var r model.Repo
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, owner, name, branch, manifest_path, user_id, created_at
		 FROM repos WHERE owner = ? AND name = ?`,
		owner, name,
	).Scan(&r.ID, &r.Owner, &r.Name, &r.Branch, &r.ManifestPath, &r.UserID, &r.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("repository", owner+"/"+name)
		}
		return nil, fmt.Errorf("sqlite: getting repo %s/%s: %w", owner, name, err)
	}
	return &r, nil
}
