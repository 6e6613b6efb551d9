// Package auth provides the OAuth provider client, signed-cookie utilities,
// and the session middleware.
//
// Two cookies cross this package. The state cookie carries a self-verifying
// anti-CSRF payload (base64 JSON + "." + hex HMAC signature) that lives only
// for the OAuth round trip and is never persisted server-side. The session
// cookie carries an opaque random id referencing a sessions row.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	// StateCookieName holds the signed anti-CSRF payload during the OAuth
	// round trip.
	StateCookieName = "oauth_state"
	// SessionCookieName holds the opaque session id.
	SessionCookieName = "session"

	// StateTTL bounds how long a login attempt may take.
	StateTTL = 10 * time.Minute
	// SessionTTL is the absolute session lifetime.
	SessionTTL = 7 * 24 * time.Hour
)

// ErrInvalidState is returned for any state cookie that fails verification:
// bad structure, bad signature, or expired payload. Callers get no finer
// detail — a forged and a merely stale token look identical.
var ErrInvalidState = errors.New("auth: invalid state token")

// State is the transient payload carried in the state cookie.
type State struct {
	Nonce    string `json:"nonce"`
	ReturnTo string `json:"returnTo"`
	IssuedAt int64  `json:"issuedAt"` // unix seconds
}

// Signer signs and verifies cookie payloads with HMAC-SHA256.
// The secret is process configuration, injected at construction.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. The secret should be at least 32 bytes of
// random data in production; anything under 16 is rejected outright.
func NewSigner(secret string) (*Signer, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: signing secret must be at least 16 characters")
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign returns the hex HMAC-SHA256 signature of payload.
func (s *Signer) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over payload and compares it against sig
// in constant time. A length mismatch is a rejection like any other, not a
// distinct outcome.
func (s *Signer) Verify(payload []byte, sig string) bool {
	return ConstantTimeEqual(s.Sign(payload), sig)
}

// ConstantTimeEqual compares two strings without early exit on the first
// differing byte, so signature comparison leaks no timing information.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// EncodeState serializes and signs a State into cookie wire format:
// base64url(JSON payload) + "." + hex signature.
func (s *Signer) EncodeState(st State) (string, error) {
	payload, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("auth: encoding state payload: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + s.Sign([]byte(encoded)), nil
}

// DecodeState parses and verifies a state cookie value. Every failure mode
// collapses to ErrInvalidState: the caller restarts the flow either way.
func (s *Signer) DecodeState(value string) (*State, error) {
	encoded, sig, ok := strings.Cut(value, ".")
	if !ok || encoded == "" {
		return nil, ErrInvalidState
	}
	if !s.Verify([]byte(encoded), sig) {
		return nil, ErrInvalidState
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidState
	}

	var st State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, ErrInvalidState
	}
	if st.Nonce == "" {
		return nil, ErrInvalidState
	}
	if time.Since(time.Unix(st.IssuedAt, 0)) > StateTTL {
		return nil, ErrInvalidState
	}
	return &st, nil
}

// NewSessionID returns a fresh unguessable session identifier. The id is
// the entire credential, so it comes from crypto/rand.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// secureCookie builds a cookie with the attributes every comicshelf cookie
// shares: HTTP-only, Secure, SameSite=Lax, whole-site path.
func secureCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewStateCookie wraps an encoded state token in its cookie.
func NewStateCookie(value string) *http.Cookie {
	return secureCookie(StateCookieName, value, int(StateTTL.Seconds()))
}

// ClearStateCookie overwrites the state cookie with an empty value and a
// zero max age, removing it from the browser.
func ClearStateCookie() *http.Cookie {
	return secureCookie(StateCookieName, "", -1)
}

// NewSessionCookie wraps a session id in its cookie.
func NewSessionCookie(id string) *http.Cookie {
	return secureCookie(SessionCookieName, id, int(SessionTTL.Seconds()))
}

// ClearSessionCookie removes the session cookie from the browser.
func ClearSessionCookie() *http.Cookie {
	return secureCookie(SessionCookieName, "", -1)
}
