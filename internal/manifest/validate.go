package manifest

import (
	"fmt"
	"math"
	"strings"

	"github.com/sakif/comicshelf/internal/apperror"
)

// Validate turns an arbitrary decoded JSON value into a validated Manifest,
// or fails with an apperror.ValidationFailed naming the first violated
// field. Checks run in a fixed priority order: document shape, schema
// version, title, slug, pages shape, then each page in array order.
// Page validation stops at the first failing page and reports its index.
//
// Title and slug resolution prefers the nested "issue" object and falls
// back to the legacy top-level fields; both are trimmed of surrounding
// whitespace. This fallback is a compatibility shim for pre-"issue"
// manifests and is load-bearing: removing it is a behavior change.
func Validate(doc any) (*Manifest, error) {
	obj, ok := doc.(map[string]any)
	if !ok || obj == nil {
		return nil, apperror.ValidationFailed("manifest", "manifest must be a JSON object")
	}

	version, ok := obj["schemaVersion"].(float64)
	if !ok || version != float64(SchemaVersion) {
		return nil, apperror.ValidationFailed("schemaVersion",
			fmt.Sprintf("schemaVersion must be %d", SchemaVersion))
	}

	issue, _ := obj["issue"].(map[string]any)

	title := resolveString(issue, obj, "title")
	if title == "" {
		return nil, apperror.ValidationFailed("title", "a non-empty title is required")
	}

	slug := resolveString(issue, obj, "slug")
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "a non-empty slug is required")
	}

	rawPages, ok := obj["pages"].([]any)
	if !ok {
		// An absent or non-array pages field is rejected; an empty array is fine.
		return nil, apperror.ValidationFailed("pages", "pages must be an array")
	}

	pages := make([]Page, 0, len(rawPages))
	for i, rawPage := range rawPages {
		page, err := validatePage(i, rawPage)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return &Manifest{
		SchemaVersion: SchemaVersion,
		Title:         title,
		Slug:          slug,
		Pages:         pages,
	}, nil
}

// validatePage checks one page entry. The field order here (id, alt, image,
// image.r2Key, pageNumber) defines which violation gets reported when a
// page has several. Page strings are taken verbatim — only title and slug
// get the whitespace trim.
func validatePage(i int, raw any) (Page, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Page{}, pageError(i, "", "page must be a JSON object")
	}

	id, _ := obj["id"].(string)
	if id == "" {
		return Page{}, pageError(i, "id", "page id is required")
	}

	alt, _ := obj["alt"].(string)
	if alt == "" {
		return Page{}, pageError(i, "alt", "page alt text is required")
	}

	image, ok := obj["image"].(map[string]any)
	if !ok {
		return Page{}, pageError(i, "image", "page image must be an object")
	}

	key, _ := image["r2Key"].(string)
	if key == "" {
		return Page{}, pageError(i, "image.r2Key", "page image key is required")
	}

	page := Page{ID: id, Alt: alt, ImageKey: key}

	if rawNum, present := obj["pageNumber"]; present {
		num, ok := rawNum.(float64)
		if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
			return Page{}, pageError(i, "pageNumber", "pageNumber must be a finite number")
		}
		page.Number = &num
	}

	return page, nil
}

func pageError(i int, field, message string) error {
	path := fmt.Sprintf("pages[%d]", i)
	if field != "" {
		path += "." + field
	}
	return apperror.ValidationFailed(path, fmt.Sprintf("%s: %s", path, message))
}

// resolveString reads key from the issue object first, then falls back to
// the legacy top-level field. Returns "" when neither yields a non-empty
// trimmed string.
func resolveString(issue, top map[string]any, key string) string {
	if issue != nil {
		if s := trimmed(issue[key]); s != "" {
			return s
		}
	}
	return trimmed(top[key])
}

func trimmed(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
