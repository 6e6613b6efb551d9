package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/manifest"
	"github.com/sakif/comicshelf/internal/model"
	"github.com/sakif/comicshelf/internal/repository"
)

// ReaderService serves the read side: previously cached manifests only,
// no authentication, no upstream calls.
type ReaderService struct {
	repos  repository.RepoRepository
	comics repository.ComicRepository
	logger *slog.Logger
}

// NewReaderService wires the read path.
func NewReaderService(
	repos repository.RepoRepository,
	comics repository.ComicRepository,
	logger *slog.Logger,
) *ReaderService {
	return &ReaderService{repos: repos, comics: comics, logger: logger}
}

// PageView is everything the reader template needs for one page.
type PageView struct {
	Owner      string
	Repo       string
	Slug       string
	Title      string
	PageNumber int
	TotalPages int
	Page       manifest.Page
}

// Page resolves one 1-based page of a cached comic. An empty slug selects
// the repository's most recently cached issue. Unregistered repositories,
// uncached slugs, and out-of-range pages are all not-found.
func (s *ReaderService) Page(ctx context.Context, owner, name, slug string, pageNumber int) (*PageView, error) {
	repo, err := s.repos.GetRepoByOwnerName(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("service/reader: looking up %s/%s: %w", owner, name, err)
	}

	comic, err := s.lookupComic(ctx, repo.ID, slug)
	if err != nil {
		return nil, err
	}

	// The cached manifest was validated at refresh time; re-validating the
	// stored bytes recovers the typed view and guards against rows written
	// by older schema versions.
	var doc any
	if err := json.Unmarshal([]byte(comic.Manifest), &doc); err != nil {
		return nil, fmt.Errorf("service/reader: cached manifest for %s is corrupt: %w", comic.Slug, err)
	}
	m, err := manifest.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("service/reader: cached manifest for %s no longer validates: %w", comic.Slug, err)
	}

	page, found := manifest.ResolvePage(m, pageNumber)
	if !found {
		return nil, apperror.NotFound("page", fmt.Sprintf("%d", pageNumber))
	}

	return &PageView{
		Owner:      repo.Owner,
		Repo:       repo.Name,
		Slug:       comic.Slug,
		Title:      comic.Title,
		PageNumber: pageNumber,
		TotalPages: len(m.Pages),
		Page:       *page,
	}, nil
}

func (s *ReaderService) lookupComic(ctx context.Context, repoID, slug string) (*model.Comic, error) {
	if slug != "" {
		comic, err := s.comics.GetComicBySlug(ctx, repoID, slug)
		if err != nil {
			return nil, fmt.Errorf("service/reader: looking up slug %s: %w", slug, err)
		}
		return comic, nil
	}
	comic, err := s.comics.GetLatestComic(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("service/reader: looking up latest comic: %w", err)
	}
	return comic, nil
}
