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

var _ repository.AssetRepository = (*DB)(nil)

// UpsertAsset records (or refreshes) the tracking row for a stored object.
func (db *DB) UpsertAsset(ctx context.Context, asset *model.Asset) error {
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	if asset.LastReferencedAt.IsZero() {
		asset.LastReferencedAt = now
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO assets (key, owner, content_type, created_at, last_referenced_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			owner = excluded.owner,
			content_type = excluded.content_type,
			last_referenced_at = excluded.last_referenced_at`,
		asset.Key, asset.Owner, asset.ContentType, asset.CreatedAt, asset.LastReferencedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting asset %s: %w", asset.Key, err)
	}
	return nil
}

// GetAsset returns the tracking row for a key, or apperror.ErrNotFound.
func (db *DB) GetAsset(ctx context.Context, key string) (*model.Asset, error) {
	var a model.Asset
	err := db.conn.QueryRowContext(ctx,
		`SELECT key, owner, content_type, created_at, last_referenced_at
		 FROM assets WHERE key = ?`, key,
	).Scan(&a.Key, &a.Owner, &a.ContentType, &a.CreatedAt, &a.LastReferencedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("asset", key)
		}
		return nil, fmt.Errorf("sqlite: getting asset %s: %w", key, err)
	}
	return &a, nil
}

// TouchAsset bumps last_referenced_at for a key. Touching an untracked key
// is a no-op.
func (db *DB) TouchAsset(ctx context.Context, key string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE assets SET last_referenced_at = ? WHERE key = ?`, at.UTC(), key)
	if err != nil {
		return fmt.Errorf("sqlite: touching asset %s: %w", key, err)
	}
	return nil
}
