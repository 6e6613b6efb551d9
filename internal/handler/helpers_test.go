package handler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/comicshelf/internal/model"
	sqliteRepo "github.com/sakif/comicshelf/internal/repository/sqlite"
)

// testManifest is a valid two-page manifest: one page with an explicit
// number, one addressed by position.
const testManifest = `{
	"schemaVersion": 1,
	"issue": {"title": "Issue One", "slug": "issue-1"},
	"pages": [
		{"id": "a", "alt": "Page one", "image": {"r2Key": "comics/issue-1/p1.png"}, "pageNumber": 1},
		{"id": "b", "alt": "Page two", "image": {"r2Key": "comics/issue-1/p2.png"}}
	]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDB(t *testing.T) *sqliteRepo.DB {
	t.Helper()
	db, err := sqliteRepo.New(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// registerRepo provisions a registration row pointing at comic.json on the
// default branch, owned by a freshly upserted user.
func registerRepo(t *testing.T, db *sqliteRepo.DB, owner, name string) *model.Repo {
	t.Helper()
	user := &model.User{GitHubID: 4242, Login: owner}
	if err := db.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	repo := &model.Repo{
		Owner:        owner,
		Name:         name,
		Branch:       "main",
		ManifestPath: "comic.json",
		UserID:       user.ID,
	}
	if err := db.CreateRepo(context.Background(), repo); err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}
	return repo
}
