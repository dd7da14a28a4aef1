package credential

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Refresher exchanges a refresh token for a new access token.
//
// Implementations must return ErrReauthRequired (wrapped or direct) when
// the refresh token itself is invalid or revoked, so the manager can
// distinguish terminal failures from transient ones.
type Refresher interface {
	Refresh(ctx context.Context, cred Credential) (Credential, error)
}

// RefresherFunc adapts a function to the Refresher interface.
type RefresherFunc func(ctx context.Context, cred Credential) (Credential, error)

// Refresh calls the function.
func (f RefresherFunc) Refresh(ctx context.Context, cred Credential) (Credential, error) {
	return f(ctx, cred)
}

// OAuth2Refresher performs the refresh-token grant against a provider's
// token endpoint.
type OAuth2Refresher struct {
	config *oauth2.Config
}

// NewOAuth2Refresher creates a refresher for the given OAuth2 client
// configuration.
func NewOAuth2Refresher(config *oauth2.Config) *OAuth2Refresher {
	return &OAuth2Refresher{config: config}
}

// Refresh exchanges cred's refresh token for a fresh access token.
func (r *OAuth2Refresher) Refresh(ctx context.Context, cred Credential) (Credential, error) {
	if cred.RefreshToken == "" {
		return Credential{}, fmt.Errorf("%w: no refresh token", ErrReauthRequired)
	}

	source := r.config.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := source.Token()
	if err != nil {
		if isInvalidGrant(err) {
			return Credential{}, fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
		return Credential{}, fmt.Errorf("credential: refresh failed: %w", err)
	}

	refreshed := cred
	refreshed.AccessToken = token.AccessToken
	refreshed.ExpiresAt = token.Expiry
	// Providers may rotate the refresh token; keep the old one otherwise.
	if token.RefreshToken != "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	return refreshed, nil
}

// isInvalidGrant detects the RFC 6749 invalid_grant error, which means the
// refresh token is expired or revoked.
func isInvalidGrant(err error) bool {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		return retrieve.ErrorCode == "invalid_grant"
	}
	return false
}

// Ensure OAuth2Refresher implements Refresher
var _ Refresher = (*OAuth2Refresher)(nil)
