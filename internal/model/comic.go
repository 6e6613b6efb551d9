package model

import "time"

// StatusDraft is the status every cached issue carries; refresh never
// publishes.
const StatusDraft = "draft"

// Comic is one cached issue manifest, keyed by (repo, slug).
//
// Manifest holds the validated manifest JSON verbatim, so the reader view
// serves exactly what was fetched. The invariant is at most one row per
// (RepoID, Slug): refreshing an already-cached slug updates in place.
type Comic struct {
	ID        string    `json:"id"`
	RepoID    string    `json:"repoId"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Manifest  string    `json:"manifest"` // serialized manifest document
	CachedAt  time.Time `json:"cachedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
