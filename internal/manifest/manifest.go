// Package manifest validates comic-issue manifest documents and resolves
// pages within them.
//
// A manifest is an externally hosted JSON document describing one issue:
// a schema version, issue metadata (title, slug), and an ordered list of
// pages, each carrying an object-store key for its image. Everything in
// this package is pure: no I/O, no clocks, same input → same verdict.
package manifest

// SchemaVersion is the only manifest schema version this server accepts.
// Unknown versions are rejected outright rather than negotiated.
const SchemaVersion = 1

// Manifest is the validated view of a manifest document.
type Manifest struct {
	SchemaVersion int    `json:"schemaVersion"`
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	Pages         []Page `json:"pages"`
}

// Page is one validated page entry.
type Page struct {
	ID       string `json:"id"`
	Alt      string `json:"alt"`
	ImageKey string `json:"imageKey"` // object-store key from image.r2Key
	// Number is the explicit page number, if the manifest declared one.
	// Nil means the page relies on its array position.
	Number *float64 `json:"pageNumber,omitempty"`
}
