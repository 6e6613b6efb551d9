package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sakif/comicshelf/internal/apperror"
)

// ManifestFetcher retrieves a remote manifest document. It returns both the
// decoded JSON value (for validation) and the raw bytes (cached verbatim).
type ManifestFetcher interface {
	Fetch(ctx context.Context, url string) (doc any, raw []byte, err error)
}

// HTTPFetcher fetches manifests over plain unauthenticated HTTP. Manifests
// are public; there is no credential to attach.
type HTTPFetcher struct {
	client *http.Client
}

var _ ManifestFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher. A nil client falls back to
// http.DefaultClient.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{client: client}
}

// Fetch GETs the manifest. A non-2xx status or a body that is not valid
// JSON is an upstream error; the caller may safely retry the whole request.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (any, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch: building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperror.Upstream("manifest fetch failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, apperror.Upstream(fmt.Sprintf("manifest fetch returned status %d", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperror.Upstream("reading manifest body failed"), err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, apperror.Upstream("manifest body is not valid JSON")
	}
	return doc, raw, nil
}
