package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/model"
	"github.com/sakif/comicshelf/internal/repository"
)

// FSStore is a filesystem-backed Store rooted at a data directory, with
// object metadata tracked in the assets table. Put records the object;
// Get and Head refresh its last-referenced time.
type FSStore struct {
	root   string
	assets repository.AssetRepository
	logger *slog.Logger
}

var _ Store = (*FSStore)(nil)

// NewFSStore creates the store, ensuring the root directory exists.
func NewFSStore(root string, assets repository.AssetRepository, logger *slog.Logger) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blob: creating store root %s: %w", root, err)
	}
	return &FSStore{root: root, assets: assets, logger: logger}, nil
}

// pathFor maps an opaque key onto the store root. Keys may contain slashes
// ("comics/issue-1/p1.png") but must not escape the root.
func (s *FSStore) pathFor(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.Contains(key, "..") {
		return "", apperror.NotFound("asset", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(key)), nil
}

// Get opens an object for reading.
func (s *FSStore) Get(ctx context.Context, key string) (*Object, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("asset", key)
		}
		return nil, fmt.Errorf("blob: opening %s: %w", key, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blob: stat %s: %w", key, err)
	}

	s.touch(ctx, key)
	return &Object{
		Body:        f,
		ContentType: s.contentType(ctx, key),
		Size:        stat.Size(),
	}, nil
}

// Head describes an object without opening it.
func (s *FSStore) Head(ctx context.Context, key string) (*Info, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.NotFound("asset", key)
		}
		return nil, fmt.Errorf("blob: stat %s: %w", key, err)
	}

	s.touch(ctx, key)
	return &Info{
		Key:         key,
		ContentType: s.contentType(ctx, key),
		Size:        stat.Size(),
	}, nil
}

// Put writes an object and records it in the assets table.
func (s *FSStore) Put(ctx context.Context, key, contentType, owner string, body io.Reader) error {
	p, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("blob: creating directory for %s: %w", key, err)
	}

	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("blob: creating %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("blob: writing %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("blob: closing %s: %w", key, err)
	}

	if err := s.assets.UpsertAsset(ctx, &model.Asset{
		Key:         key,
		Owner:       owner,
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("blob: recording asset %s: %w", key, err)
	}
	return nil
}

// contentType reads the stored content type for a key, falling back to a
// generic type when the object predates the tracking table.
func (s *FSStore) contentType(ctx context.Context, key string) string {
	asset, err := s.assets.GetAsset(ctx, key)
	if err != nil || asset.ContentType == "" {
		return "application/octet-stream"
	}
	return asset.ContentType
}

// touch bumps the last-referenced time. Tracking failures are logged, not
// surfaced: serving the object matters more than the bookkeeping row.
func (s *FSStore) touch(ctx context.Context, key string) {
	if err := s.assets.TouchAsset(ctx, key, time.Now()); err != nil {
		s.logger.Warn("failed to touch asset reference",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
