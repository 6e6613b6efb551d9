package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/service"
)

// ReaderHandler renders the comic reader page. This surface is HTML, not
// the JSON API: errors come back as plain text with the matching status.
type ReaderHandler struct {
	reader    *service.ReaderService
	templates *template.Template
	logger    *slog.Logger
}

// NewReaderHandler creates a ReaderHandler, parsing the reader templates
// once at startup. base.html holds the page shell; reader.html fills its
// "content" block.
func NewReaderHandler(reader *service.ReaderService, templateDir string, logger *slog.Logger) (*ReaderHandler, error) {
	tmpl, err := template.ParseFiles(
		filepath.Join(templateDir, "base.html"),
		filepath.Join(templateDir, "reader.html"),
	)
	if err != nil {
		return nil, err
	}
	return &ReaderHandler{reader: reader, templates: tmpl, logger: logger}, nil
}

// readerPageData is what the reader template renders: the resolved page
// plus navigation state derived from it.
type readerPageData struct {
	View     *service.PageView
	ImageURL string
	PrevURL  string // empty on the first page
	NextURL  string // empty on the last page
}

// HandleRead renders one page of a cached comic.
//
// HTTP: GET /read/{owner}/{repo}?slug=issue-1&page=2
//
// page defaults to 1; slug defaults to the most recently cached issue.
// Anything unresolvable (unknown repo, uncached slug, out-of-range page)
// is a 404.
func (h *ReaderHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")
	slug := r.URL.Query().Get("slug")

	pageNumber := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid page number", http.StatusBadRequest)
			return
		}
		pageNumber = n
	}

	view, err := h.reader.Page(r.Context(), owner, repo, slug, pageNumber)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("reader page failed",
			slog.String("repo", owner+"/"+repo),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := readerPageData{
		View:     view,
		ImageURL: "/assets/" + view.Page.ImageKey,
	}
	if pageNumber > 1 {
		data.PrevURL = h.pageURL(owner, repo, view.Slug, pageNumber-1)
	}
	if pageNumber < view.TotalPages {
		data.NextURL = h.pageURL(owner, repo, view.Slug, pageNumber+1)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render reader template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *ReaderHandler) pageURL(owner, repo, slug string, page int) string {
	return "/read/" + owner + "/" + repo + "?slug=" + slug + "&page=" + strconv.Itoa(page)
}
