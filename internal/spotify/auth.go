// Package spotify provides the Spotify OAuth flow and a thin client for
// the Web API endpoints the Wrapped pipeline consumes.
package spotify

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Scopes requested during authorization.
const (
	ScopeUserReadPrivate          = "user-read-private"
	ScopeUserTopRead              = "user-top-read"
	ScopeUserModifyPlaybackState  = "user-modify-playback-state"
)

const stateLength = 16

// Authenticator handles the Spotify authorization code flow and
// explicit refresh-token grants.
type Authenticator struct {
	config *oauth2.Config
}

// AuthOption configures an Authenticator.
type AuthOption func(*Authenticator)

// WithEndpoint overrides the OAuth endpoint, used in tests to point the
// token exchange at a local server.
func WithEndpoint(endpoint oauth2.Endpoint) AuthOption {
	return func(a *Authenticator) {
		a.config.Endpoint = endpoint
	}
}

// NewAuthenticator creates an Authenticator for the given application
// credentials and redirect URI.
func NewAuthenticator(clientID, clientSecret, redirectURI string, opts ...AuthOption) *Authenticator {
	a := &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				ScopeUserReadPrivate,
				ScopeUserTopRead,
				ScopeUserModifyPlaybackState,
			},
			Endpoint: endpoints.Spotify,
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AuthURL returns the Spotify authorization page URL carrying the given
// anti-forgery state.
func (a *Authenticator) AuthURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token pair.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}
	return token, nil
}

// Refresh exchanges a refresh token for a new access token. A non-200
// response from the token endpoint surfaces as an error; on success the
// new access token is returned for the caller to persist.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (string, error) {
	source := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("refreshing token: response missing access token")
	}
	return token.AccessToken, nil
}

const stateCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateState creates a random 16-character alphanumeric state token
// binding an authorization request to its callback.
func GenerateState() (string, error) {
	b := make([]byte, stateLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(stateCharset))))
		if err != nil {
			return "", err
		}
		b[i] = stateCharset[n.Int64()]
	}
	return string(b), nil
}
