package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/auth"
	"github.com/sakif/comicshelf/internal/model"
)

// In-memory fakes for the repository interfaces. Plain structs, no mock
// framework: what each fake does is visible at a glance, and error
// injection is just setting a field.

type fakeUserRepo struct {
	byGitHubID map[int64]*model.User
	upsertErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byGitHubID: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) UpsertUser(ctx context.Context, user *model.User) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	now := time.Now()
	if existing, ok := f.byGitHubID[user.GitHubID]; ok {
		existing.Login = user.Login
		existing.Name = user.Name
		existing.AvatarURL = user.AvatarURL
		existing.UpdatedAt = now
		*user = *existing
		return nil
	}
	user.ID = model.UserID(user.GitHubID)
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	f.byGitHubID[user.GitHubID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range f.byGitHubID {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

type fakeRepoRepo struct {
	repos map[string]*model.Repo // keyed by owner/name
}

func newFakeRepoRepo() *fakeRepoRepo {
	return &fakeRepoRepo{repos: make(map[string]*model.Repo)}
}

func (f *fakeRepoRepo) CreateRepo(ctx context.Context, repo *model.Repo) error {
	if repo.ID == "" {
		repo.ID = "repo-" + repo.Owner + "-" + repo.Name
	}
	if repo.Branch == "" {
		repo.Branch = "main"
	}
	f.repos[repo.Owner+"/"+repo.Name] = repo
	return nil
}

func (f *fakeRepoRepo) GetRepoByOwnerName(ctx context.Context, owner, name string) (*model.Repo, error) {
	repo, ok := f.repos[owner+"/"+name]
	if !ok {
		return nil, apperror.NotFound("repository", owner+"/"+name)
	}
	return repo, nil
}

type fakeComicRepo struct {
	comics    map[string]*model.Comic // keyed by repoID|slug
	order     []string                // insertion order for GetLatestComic
	upsertErr error
}

func newFakeComicRepo() *fakeComicRepo {
	return &fakeComicRepo{comics: make(map[string]*model.Comic)}
}

func (f *fakeComicRepo) UpsertComic(ctx context.Context, repoID, slug, title, manifest string) (*model.Comic, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	key := repoID + "|" + slug
	now := time.Now()
	if existing, ok := f.comics[key]; ok {
		existing.Title = title
		existing.Manifest = manifest
		existing.CachedAt = now
		existing.UpdatedAt = now
		return existing, nil
	}
	comic := &model.Comic{
		ID:        model.ComicID(repoID, slug),
		RepoID:    repoID,
		Slug:      slug,
		Title:     title,
		Status:    model.StatusDraft,
		Manifest:  manifest,
		CachedAt:  now,
		UpdatedAt: now,
	}
	f.comics[key] = comic
	f.order = append(f.order, key)
	return comic, nil
}

func (f *fakeComicRepo) GetComicBySlug(ctx context.Context, repoID, slug string) (*model.Comic, error) {
	comic, ok := f.comics[repoID+"|"+slug]
	if !ok {
		return nil, apperror.NotFound("comic", slug)
	}
	return comic, nil
}

func (f *fakeComicRepo) GetLatestComic(ctx context.Context, repoID string) (*model.Comic, error) {
	var latest *model.Comic
	for _, key := range f.order {
		if c := f.comics[key]; c.RepoID == repoID {
			if latest == nil || !c.CachedAt.Before(latest.CachedAt) {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, apperror.NotFound("comic", repoID)
	}
	return latest, nil
}

type fakeSessionRepo struct {
	sessions  map[string]*model.Session
	createErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, session *model.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	stored := *session
	f.sessions[session.ID] = &stored
	return nil
}

func (f *fakeSessionRepo) GetActiveSession(ctx context.Context, id string, now time.Time) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok || !s.ExpiresAt.After(now) {
		return nil, apperror.NotFound("session", "id")
	}
	return s, nil
}

func (f *fakeSessionRepo) DeleteSession(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

// fakeProvider stands in for GitHub.
type fakeProvider struct {
	identity     *auth.GitHubUser
	exchangeErr  error
	exchangedFor string
}

func (f *fakeProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	f.exchangedFor = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.identity, nil
}

// fakeFetcher serves a canned manifest document.
type fakeFetcher struct {
	doc      any
	raw      []byte
	err      error
	fetched  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (any, []byte, error) {
	f.fetched = append(f.fetched, url)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.doc, f.raw, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testSigner(t *testing.T) *auth.Signer {
	t.Helper()
	signer, err := auth.NewSigner("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return signer
}
