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

var _ repository.ComicRepository = (*DB)(nil)

// UpsertComic caches a validated manifest under (repoID, slug).
//
// Two statements inside one transaction: an insert-if-absent with the
// deterministic comic id, then an unconditional update of title, manifest,
// and both timestamps. The deterministic id makes a concurrent duplicate
// insert a no-op instead of a race; the unconditional update makes repeated
// refreshes converge on the latest caller's data (last write wins). A crash
// between the statements leaves a row the next refresh's update corrects.
func (db *DB) UpsertComic(ctx context.Context, repoID, slug, title, manifest string) (*model.Comic, error) {
	id := model.ComicID(repoID, slug)
	now := time.Now().UTC()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning comic upsert: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO comics (id, repo_id, slug, title, status, manifest, cached_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(repo_id, slug) DO NOTHING`,
		id, repoID, slug, title, model.StatusDraft, manifest, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting comic %s/%s: %w", repoID, slug, err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE comics SET title = ?, manifest = ?, cached_at = ?, updated_at = ?
		 WHERE repo_id = ? AND slug = ?`,
		title, manifest, now, now, repoID, slug,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating comic %s/%s: %w", repoID, slug, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing comic upsert: %w", err)
	}

	return db.GetComicBySlug(ctx, repoID, slug)
}

// GetComicBySlug returns the cached comic for (repoID, slug), or
// apperror.ErrNotFound.
func (db *DB) GetComicBySlug(ctx context.Context, repoID, slug string) (*model.Comic, error) {
	return scanComic(db.conn.QueryRowContext(ctx,
		`SELECT id, repo_id, slug, title, status, manifest, cached_at, updated_at
		 FROM comics WHERE repo_id = ? AND slug = ?`,
		repoID, slug), slug)
}

// GetLatestComic returns the most recently cached comic for a repository. Used
// by the reader view when no slug is given.
func (db *DB) GetLatestComic(ctx context.Context, repoID string) (*model.Comic, error) {
	return scanComic(db.conn.QueryRowContext(ctx,
		`SELECT id, repo_id, slug, title, status, manifest, cached_at, updated_at
		 FROM comics WHERE repo_id = ?
		 ORDER BY cached_at DESC, id LIMIT 1`,
		repoID), repoID)
}

func scanComic(row *sql.Row, key string) (*model.Comic, error) {
	var c model.Comic
	err := row.Scan(&c.ID, &c.RepoID, &c.Slug, &c.Title, &c.Status, &c.Manifest, &c.CachedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comic", key)
		}
		return nil, fmt.Errorf("sqlite: getting comic %s: %w", key, err)
	}
	return &c, nil
}
