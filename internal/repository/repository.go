// Package repository declares the storage interfaces the services depend
// on. The sqlite subpackage is the only implementation; tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/comicshelf/internal/model"
)

// UserRepository stores OAuth-backed user accounts.
type UserRepository interface {
	// UpsertUser creates or refreshes a user keyed by GitHubID. On return
	// the struct carries the canonical row (internal id, timestamps).
	UpsertUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// RepoRepository reads administrator-provisioned repository registrations.
type RepoRepository interface {
	// CreateRepo exists for provisioning tooling and tests; the server
	// itself only reads registrations.
	CreateRepo(ctx context.Context, repo *model.Repo) error
	GetRepoByOwnerName(ctx context.Context, owner, name string) (*model.Repo, error)
}

// ComicRepository caches validated manifests, one row per (repo, slug).
type ComicRepository interface {
	// UpsertComic is the idempotent two-step cache write: insert-if-absent
	// with a deterministic id, then unconditionally update title, manifest,
	// and timestamps. Repeated calls with the same key leave exactly one
	// row reflecting the latest call.
	UpsertComic(ctx context.Context, repoID, slug, title, manifest string) (*model.Comic, error)
	GetComicBySlug(ctx context.Context, repoID, slug string) (*model.Comic, error)
	// GetLatestComic returns the most recently cached comic for a repository.
	GetLatestComic(ctx context.Context, repoID string) (*model.Comic, error)
}

// SessionRepository stores login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetActiveSession returns the session only if its expiry is strictly
	// after now; an expired session is reported as not found, identically
	// to a session that never existed.
	GetActiveSession(ctx context.Context, id string, now time.Time) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// AssetRepository tracks blob-store object references. Only the blob store
// talks to it.
type AssetRepository interface {
	UpsertAsset(ctx context.Context, asset *model.Asset) error
	GetAsset(ctx context.Context, key string) (*model.Asset, error)
	TouchAsset(ctx context.Context, key string, at time.Time) error
}
