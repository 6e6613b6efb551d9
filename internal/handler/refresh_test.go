package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/comicshelf/internal/handler"
	"github.com/sakif/comicshelf/internal/service"
)

// upstreamManifest fakes the raw file host: every request path gets the
// same body and status, and hits are counted.
type upstreamManifest struct {
	body   string
	status int
	hits   int
}

func (u *upstreamManifest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.hits++
	w.WriteHeader(u.status)
	w.Write([]byte(u.body))
}

func newRefreshTest(t *testing.T, upstream *upstreamManifest) (*handler.RefreshHandler, *service.ReaderService) {
	t.Helper()
	ts := httptest.NewServer(upstream)
	t.Cleanup(ts.Close)

	db := newTestDB(t)
	registerRepo(t, db, "acme", "comic1")

	refresher := service.NewRefreshService(db, db, service.NewHTTPFetcher(nil), ts.URL, testLogger())
	reader := service.NewReaderService(db, db, testLogger())
	return handler.NewRefreshHandler(refresher, testLogger()), reader
}

func postRefresh(h *handler.RefreshHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/refresh", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.HandleRefresh(rr, req)
	return rr
}

func TestHandleRefresh_Success(t *testing.T) {
	upstream := &upstreamManifest{body: testManifest, status: http.StatusOK}
	h, reader := newRefreshTest(t, upstream)

	rr := postRefresh(h, `{"owner":"acme","repo":"comic1"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var res service.RefreshResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "acme", res.Owner)
	assert.Equal(t, "comic1", res.Repo)
	assert.Equal(t, "main", res.Branch)
	assert.True(t, strings.HasSuffix(res.Source, "/acme/comic1/main/comic.json"))
	assert.Equal(t, "issue-1", res.Cached.Slug)
	assert.Equal(t, "Issue One", res.Cached.Title)

	// The cached manifest is immediately readable.
	view, err := reader.Page(context.Background(), "acme", "comic1", "issue-1", 2)
	require.NoError(t, err)
	assert.Equal(t, "b", view.Page.ID)
}

func TestHandleRefresh_UnregisteredRepo(t *testing.T) {
	upstream := &upstreamManifest{body: testManifest, status: http.StatusOK}
	h, _ := newRefreshTest(t, upstream)

	rr := postRefresh(h, `{"owner":"nobody","repo":"nothing"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	// Registration is checked before any network call.
	assert.Equal(t, 0, upstream.hits)
}

func TestHandleRefresh_UpstreamFailure(t *testing.T) {
	upstream := &upstreamManifest{body: "gone", status: http.StatusInternalServerError}
	h, _ := newRefreshTest(t, upstream)

	rr := postRefresh(h, `{"owner":"acme","repo":"comic1"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestHandleRefresh_InvalidManifest(t *testing.T) {
	upstream := &upstreamManifest{body: `{"schemaVersion": 2, "pages": []}`, status: http.StatusOK}
	h, reader := newRefreshTest(t, upstream)

	rr := postRefresh(h, `{"owner":"acme","repo":"comic1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var res handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "validation_error", res.Error)
	assert.Equal(t, "schemaVersion", res.Field)

	// Nothing was cached.
	_, err := reader.Page(context.Background(), "acme", "comic1", "", 1)
	assert.Error(t, err)
}

func TestHandleRefresh_BadBody(t *testing.T) {
	upstream := &upstreamManifest{body: testManifest, status: http.StatusOK}
	h, _ := newRefreshTest(t, upstream)

	for _, body := range []string{`{"owner":`, `{}`, `{"owner":"acme"}`} {
		rr := postRefresh(h, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
	assert.Equal(t, 0, upstream.hits)
}

func TestHandleRefresh_SlugOverride(t *testing.T) {
	upstream := &upstreamManifest{body: testManifest, status: http.StatusOK}
	h, reader := newRefreshTest(t, upstream)

	rr := postRefresh(h, `{"owner":"acme","repo":"comic1","slug":"special"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var res service.RefreshResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.Equal(t, "special", res.Cached.Slug)

	view, err := reader.Page(context.Background(), "acme", "comic1", "special", 1)
	require.NoError(t, err)
	assert.Equal(t, "special", view.Slug)
}
