package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/comicshelf/internal/auth"
	"github.com/sakif/comicshelf/internal/handler"
	"github.com/sakif/comicshelf/internal/service"
)

// stubProvider stands in for GitHub: AuthURL echoes the state and
// Exchange returns a fixed identity for any code.
type stubProvider struct {
	identity auth.GitHubUser
}

func (p *stubProvider) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + state
}

func (p *stubProvider) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	id := p.identity
	return &id, nil
}

type authTestEnv struct {
	handler  *handler.AuthHandler
	sessions *service.SessionService
	signer   *auth.Signer
}

func newAuthTest(t *testing.T) *authTestEnv {
	t.Helper()
	db := newTestDB(t)
	signer, err := auth.NewSigner("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	provider := &stubProvider{identity: auth.GitHubUser{
		ID:        77,
		Login:     "octocat",
		Name:      "Octo Cat",
		AvatarURL: "https://avatars.example/77",
	}}
	sessions := service.NewSessionService(provider, signer, db, db, testLogger())
	return &authTestEnv{
		handler:  handler.NewAuthHandler(sessions, testLogger()),
		sessions: sessions,
		signer:   signer,
	}
}

// startFlow runs HandleStart and returns the state cookie plus the nonce
// GitHub would echo back.
func (e *authTestEnv) startFlow(t *testing.T, returnTo string) (*http.Cookie, string) {
	t.Helper()
	target := "/auth/start"
	if returnTo != "" {
		target += "?returnTo=" + returnTo
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	e.handler.HandleStart(rr, req)

	require.Equal(t, http.StatusFound, rr.Code)

	var stateCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.StateCookieName {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie, "start must set the state cookie")

	state, err := e.signer.DecodeState(stateCookie.Value)
	require.NoError(t, err)
	return stateCookie, state.Nonce
}

// completeFlow runs HandleCallback with a valid state and returns the
// session cookie.
func (e *authTestEnv) completeFlow(t *testing.T, returnTo string) *http.Cookie {
	t.Helper()
	stateCookie, nonce := e.startFlow(t, returnTo)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+nonce, nil)
	req.AddCookie(stateCookie)
	rr := httptest.NewRecorder()
	e.handler.HandleCallback(rr, req)

	require.Equal(t, http.StatusFound, rr.Code)

	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("callback must set the session cookie")
	return nil
}

func TestHandleStart(t *testing.T) {
	e := newAuthTest(t)
	stateCookie, nonce := e.startFlow(t, "/read/acme/comic1")

	assert.True(t, stateCookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, stateCookie.SameSite)
	assert.NotEmpty(t, nonce)

	state, err := e.signer.DecodeState(stateCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "/read/acme/comic1", state.ReturnTo)
}

func TestHandleCallback_Success(t *testing.T) {
	e := newAuthTest(t)
	stateCookie, nonce := e.startFlow(t, "/read/acme/comic1")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+nonce, nil)
	req.AddCookie(stateCookie)
	rr := httptest.NewRecorder()
	e.handler.HandleCallback(rr, req)

	require.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/read/acme/comic1", rr.Header().Get("Location"))

	var sessionCookie, clearedState *http.Cookie
	for _, c := range rr.Result().Cookies() {
		switch c.Name {
		case auth.SessionCookieName:
			sessionCookie = c
		case auth.StateCookieName:
			clearedState = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	// The state cookie is single-use and gets cleared.
	require.NotNil(t, clearedState)
	assert.Empty(t, clearedState.Value)
	assert.Equal(t, -1, clearedState.MaxAge)

	// The session resolves to the exchanged identity.
	user, err := e.sessions.UserForSession(context.Background(), sessionCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "octocat", user.Login)
}

func TestHandleCallback_StateMismatch(t *testing.T) {
	e := newAuthTest(t)
	stateCookie, _ := e.startFlow(t, "")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=wrong-nonce", nil)
	req.AddCookie(stateCookie)
	rr := httptest.NewRecorder()
	e.handler.HandleCallback(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCallback_MissingStateCookie(t *testing.T) {
	e := newAuthTest(t)
	_, nonce := e.startFlow(t, "")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+nonce, nil)
	rr := httptest.NewRecorder()
	e.handler.HandleCallback(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleCallback_Denied(t *testing.T) {
	e := newAuthTest(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied", nil)
	rr := httptest.NewRecorder()
	e.handler.HandleCallback(rr, req)

	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
}

func TestHandleMe(t *testing.T) {
	e := newAuthTest(t)
	sessionCookie := e.completeFlow(t, "")

	type meBody struct {
		Authenticated bool `json:"authenticated"`
		User          *struct {
			ID    string `json:"id"`
			Login string `json:"login"`
		} `json:"user"`
	}

	// Authenticated: {authenticated:true, user:{id, login}}.
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(sessionCookie)
	rr := httptest.NewRecorder()
	auth.OptionalAuth(e.sessions)(http.HandlerFunc(e.handler.HandleMe)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body meBody
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.True(t, body.Authenticated)
	require.NotNil(t, body.User)
	assert.Equal(t, "octocat", body.User.Login)
	assert.NotEmpty(t, body.User.ID)

	// Anonymous: still 200, {authenticated:false} with no user object.
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rr = httptest.NewRecorder()
	auth.OptionalAuth(e.sessions)(http.HandlerFunc(e.handler.HandleMe)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body = meBody{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.False(t, body.Authenticated)
	assert.Nil(t, body.User)
}

func TestHandleLogout(t *testing.T) {
	e := newAuthTest(t)
	sessionCookie := e.completeFlow(t, "")

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(sessionCookie)
	rr := httptest.NewRecorder()
	e.handler.HandleLogout(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	// The session row is gone: the old cookie no longer authenticates.
	_, err := e.sessions.UserForSession(context.Background(), sessionCookie.Value)
	assert.Error(t, err)

	var cleared *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	e := newAuthTest(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rr := httptest.NewRecorder()
	e.handler.HandleLogout(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
