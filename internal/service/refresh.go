package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/comicshelf/internal/manifest"
	"github.com/sakif/comicshelf/internal/repository"
)

// DefaultRawBase is where registered repositories' manifest files are
// served from: raw file access on the public GitHub host.
const DefaultRawBase = "https://raw.githubusercontent.com"

// RefreshService runs the manifest refresh pipeline: registration lookup,
// remote fetch, validation, cache upsert. Authentication happens before
// the service is reached (RequireAuth middleware); every step here is
// sequential because each step's input is the previous step's output.
type RefreshService struct {
	repos   repository.RepoRepository
	comics  repository.ComicRepository
	fetcher ManifestFetcher
	rawBase string
	logger  *slog.Logger
}

// NewRefreshService wires the refresh pipeline. rawBase overrides the
// manifest host, which tests point at a local server; empty means GitHub.
func NewRefreshService(
	repos repository.RepoRepository,
	comics repository.ComicRepository,
	fetcher ManifestFetcher,
	rawBase string,
	logger *slog.Logger,
) *RefreshService {
	if rawBase == "" {
		rawBase = DefaultRawBase
	}
	return &RefreshService{
		repos:   repos,
		comics:  comics,
		fetcher: fetcher,
		rawBase: strings.TrimRight(rawBase, "/"),
		logger:  logger,
	}
}

// CachedIssue echoes what refresh wrote to the cache.
type CachedIssue struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// RefreshResult echoes the resolved source location and the cached issue.
type RefreshResult struct {
	Owner        string      `json:"owner"`
	Repo         string      `json:"repo"`
	Branch       string      `json:"branch"`
	ManifestPath string      `json:"manifestPath"`
	Source       string      `json:"source"`
	Cached       CachedIssue `json:"cached"`
}

// Refresh fetches, validates, and caches the manifest for a registered
// repository. Steps fail with their own classification: unregistered repo
// → not found, fetch/parse trouble → upstream, schema violation →
// validation. slugOverride, when non-empty, wins over the manifest's own
// slug for the cache key. The whole pipeline is idempotent: re-invoking
// with the same inputs converges on the same cached row.
func (s *RefreshService) Refresh(ctx context.Context, owner, name, slugOverride string) (*RefreshResult, error) {
	repo, err := s.repos.GetRepoByOwnerName(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("service/refresh: looking up %s/%s: %w", owner, name, err)
	}

	source := s.sourceURL(repo.Owner, repo.Name, repo.Branch, repo.ManifestPath)

	doc, raw, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("service/refresh: fetching %s: %w", source, err)
	}

	m, err := manifest.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("service/refresh: validating manifest from %s: %w", source, err)
	}

	slug := m.Slug
	if slugOverride != "" {
		slug = slugOverride
	}

	comic, err := s.comics.UpsertComic(ctx, repo.ID, slug, m.Title, string(raw))
	if err != nil {
		return nil, fmt.Errorf("service/refresh: caching %s/%s: %w", repo.ID, slug, err)
	}

	s.logger.Info("manifest refreshed",
		slog.String("repo", repo.Owner+"/"+repo.Name),
		slog.String("slug", comic.Slug),
		slog.Int("pages", len(m.Pages)),
	)

	return &RefreshResult{
		Owner:        repo.Owner,
		Repo:         repo.Name,
		Branch:       repo.Branch,
		ManifestPath: repo.ManifestPath,
		Source:       source,
		Cached:       CachedIssue{Slug: comic.Slug, Title: comic.Title},
	}, nil
}

func (s *RefreshService) sourceURL(owner, name, branch, manifestPath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s",
		s.rawBase, owner, name, branch, strings.TrimLeft(manifestPath, "/"))
}
