package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/comicshelf/internal/auth"
	"github.com/sakif/comicshelf/internal/service"
)

// AuthHandler exposes the OAuth login flow over HTTP:
//
//	HandleStart    → set the state cookie, redirect to GitHub
//	HandleCallback → verify state, mint a session, set the session cookie
//	HandleLogout   → revoke the session row, clear the cookie
//	HandleMe       → return the authenticated user's profile
//
// All flow decisions live in service.SessionService; this handler only
// moves values between cookies, query parameters, and the service.
type AuthHandler struct {
	sessions *service.SessionService
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(sessions *service.SessionService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, logger: logger}
}

// HandleStart begins the OAuth round trip.
//
// HTTP: GET /auth/start?returnTo=/read/acme/comic1
//
// The signed state token goes into a short-lived HttpOnly cookie; the
// browser is redirected to the provider's authorization page.
func (h *AuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.Start(r.URL.Query().Get("returnTo"))
	if err != nil {
		h.logger.Error("auth start failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, auth.NewStateCookie(result.StateToken))
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// The state cookie is single-use: it is cleared on every outcome, success
// or failure. On success the new session id becomes the session cookie and
// the browser is redirected to the returnTo target captured at start.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearStateCookie())

	// The provider reports user denial as an error parameter rather than
	// a code; that is not a failure of ours.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusFound)
		return
	}

	var stateCookie string
	if c, err := r.Cookie(auth.StateCookieName); err == nil {
		stateCookie = c.Value
	}

	result, err := h.sessions.Callback(
		r.Context(),
		r.URL.Query().Get("code"),
		r.URL.Query().Get("state"),
		stateCookie,
	)
	if err != nil {
		h.logger.Warn("auth callback failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, auth.NewSessionCookie(result.Session.ID))
	http.Redirect(w, r, result.ReturnTo, http.StatusFound)
}

// HandleLogout revokes the current session and clears its cookie.
//
// HTTP: POST /auth/logout
//
// POST because logout changes state. Logging out without a session is
// fine: the response is the same either way.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if c, err := r.Cookie(auth.SessionCookieName); err == nil {
		sessionID = c.Value
	}

	if err := h.sessions.Logout(r.Context(), sessionID); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.SetCookie(w, auth.ClearSessionCookie())
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// meResponse is the GET /api/me body. Anonymous callers get
// {authenticated:false}; authenticated ones additionally get their id and
// login.
type meResponse struct {
	Authenticated bool    `json:"authenticated"`
	User          *meUser `json:"user,omitempty"`
}

type meUser struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

// HandleMe reports the caller's authentication state.
//
// HTTP: GET /api/me
// Auth: optional middleware; always 200, anonymous is a valid answer.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, meResponse{Authenticated: false})
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		Authenticated: true,
		User:          &meUser{ID: user.ID, Login: user.Login},
	})
}
