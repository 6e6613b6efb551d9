// Package service holds the business logic between the HTTP handlers and
// the repositories: the OAuth session state machine and the manifest
// refresh pipeline.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/comicshelf/internal/apperror"
	"github.com/sakif/comicshelf/internal/auth"
	"github.com/sakif/comicshelf/internal/model"
	"github.com/sakif/comicshelf/internal/repository"
)

// OAuthProvider is the slice of the identity provider the session manager
// needs. *auth.GitHubProvider implements it; tests substitute fakes.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// SessionService runs the three-phase OAuth flow (start, callback, check)
// plus logout. It owns no HTTP concerns: handlers translate its outputs
// into cookies and redirects.
type SessionService struct {
	provider OAuthProvider
	signer   *auth.Signer
	users    repository.UserRepository
	sessions repository.SessionRepository
	logger   *slog.Logger
}

// NewSessionService wires the session manager. The signer carries the
// process signing secret; it is injected rather than read from ambient
// state so the service is testable in isolation.
func NewSessionService(
	provider OAuthProvider,
	signer *auth.Signer,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		provider: provider,
		signer:   signer,
		users:    users,
		sessions: sessions,
		logger:   logger,
	}
}

// StartResult is phase one's output: the signed state token to set as a
// cookie and the provider URL to redirect the browser to.
type StartResult struct {
	StateToken  string
	RedirectURL string
}

// Start begins the OAuth round trip: fresh nonce, caller-supplied return
// target (defaulting to the site root), signed into a self-verifying state
// token. Nothing is persisted; the token is the whole record of the
// attempt.
func (s *SessionService) Start(returnTo string) (*StartResult, error) {
	nonce := xid.New().String()

	token, err := s.signer.EncodeState(auth.State{
		Nonce:    nonce,
		ReturnTo: sanitizeReturnTo(returnTo),
		IssuedAt: time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("service/session: encoding state: %w", err)
	}

	return &StartResult{
		StateToken:  token,
		RedirectURL: s.provider.AuthURL(nonce),
	}, nil
}

// CallbackResult is phase two's output.
type CallbackResult struct {
	User     *model.User
	Session  *model.Session
	ReturnTo string
}

// Callback completes the OAuth flow: verify the state cookie's signature
// and nonce, exchange the code for an identity, upsert the user, and mint
// a persisted session. Every failure is terminal for this attempt — no
// partial session state is created, and the caller must restart from
// Start.
func (s *SessionService) Callback(ctx context.Context, code, stateParam, stateCookie string) (*CallbackResult, error) {
	if code == "" || stateParam == "" || stateCookie == "" {
		return nil, apperror.BadRequest("missing OAuth code or state")
	}

	state, err := s.signer.DecodeState(stateCookie)
	if err != nil {
		return nil, apperror.BadRequest("invalid OAuth state")
	}
	// The nonce in the signed cookie must match the state echoed by the
	// provider; a mismatch means a forged, replayed, or cross-session
	// callback.
	if !auth.ConstantTimeEqual(state.Nonce, stateParam) {
		return nil, apperror.BadRequest("invalid OAuth state")
	}

	identity, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("service/session: exchanging code: %w", err)
	}

	user := &model.User{
		GitHubID:  identity.ID,
		Login:     identity.Login,
		Name:      identity.Name,
		AvatarURL: identity.AvatarURL,
	}
	if err := s.users.UpsertUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/session: upserting user (githubID=%d): %w", identity.ID, err)
	}

	sessionID, err := auth.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("service/session: %w", err)
	}
	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(auth.SessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("service/session: persisting session: %w", err)
	}

	s.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	return &CallbackResult{User: user, Session: session, ReturnTo: state.ReturnTo}, nil
}

// UserForSession resolves a session cookie value to its user. Expired and
// unknown sessions both come back as errors; the middleware treats either
// as anonymous. Implements auth.SessionVerifier.
func (s *SessionService) UserForSession(ctx context.Context, sessionID string) (*model.User, error) {
	session, err := s.sessions.GetActiveSession(ctx, sessionID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("service/session: %w", err)
	}
	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/session: fetching session user: %w", err)
	}
	return user, nil
}

// Logout deletes the session row. Unknown ids succeed: the cookie gets
// cleared either way.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("service/session: deleting session: %w", err)
	}
	return nil
}

// sanitizeReturnTo keeps the post-login redirect on this site. Anything
// that is not a local absolute path collapses to the root.
func sanitizeReturnTo(returnTo string) string {
	if returnTo == "" || !strings.HasPrefix(returnTo, "/") || strings.HasPrefix(returnTo, "//") {
		return "/"
	}
	return returnTo
}
