package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/comicshelf/internal/apperror"
)

// GitHubUser is the portion of the GitHub /user API response we care about.
// GitHub returns a much larger object; only these fields are unmarshaled.
type GitHubUser struct {
	ID        int64  `json:"id"`    // GitHub's numeric user id — stable, never changes
	Login     string `json:"login"` // GitHub username
	Name      string `json:"name"`  // display name, may be empty
	AvatarURL string `json:"avatar_url"`
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub authorization-code
// flow. The code-for-token exchange happens server-to-server with the client
// secret; the access token never reaches the browser.
type GitHubProvider struct {
	config  *oauth2.Config
	userAPI string
}

// NewGitHubProvider creates a provider from OAuth app credentials.
// callbackURL must exactly match the callback registered with the app.
// Only the minimal read-only "read:user" scope is requested.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		},
		userAPI: "https://api.github.com/user",
	}
}

// AuthURL returns the GitHub authorization URL carrying the anti-CSRF state
// nonce. The callback handler verifies the nonce against the state cookie.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for the authenticated GitHub
// identity. Any provider-side failure — the token exchange, a missing
// token, a non-200 from the user API, or an identity without a numeric id
// and login — is an upstream error; the caller must restart the flow.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Upstream("OAuth token exchange failed"), err)
	}
	if token.AccessToken == "" {
		return nil, apperror.Upstream("OAuth provider returned no access token")
	}

	// oauth2.Config.Client attaches the bearer token to every request.
	client := p.config.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userAPI, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building identity request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Upstream("fetching OAuth identity failed"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream(fmt.Sprintf("identity endpoint returned status %d", resp.StatusCode))
	}

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.Upstream("decoding OAuth identity failed"), err)
	}
	if user.ID == 0 || user.Login == "" {
		return nil, apperror.Upstream("OAuth provider returned an incomplete identity")
	}

	return &user, nil
}
