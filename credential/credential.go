package credential

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for credential operations.
var (
	// ErrReauthRequired means the refresh token is invalid or revoked.
	// Terminal: the subject must go through interactive authentication
	// again.
	ErrReauthRequired = errors.New("credential: re-authentication required")

	// ErrUnknownSubject is returned when no credential exists for a
	// subject.
	ErrUnknownSubject = errors.New("credential: unknown subject")
)

// Credential is one subject's OAuth credential. The manager mutates it in
// place on every refresh; callers receive copies.
type Credential struct {
	// Subject identifies the credential owner, e.g. "google:user@example.com".
	Subject string `json:"subject"`

	// AccessToken is the bearer token presented to the provider.
	AccessToken string `json:"access_token"`

	// RefreshToken is exchanged for new access tokens.
	RefreshToken string `json:"refresh_token"`

	// ExpiresAt is when AccessToken stops being accepted.
	ExpiresAt time.Time `json:"expires_at"`

	// RefreshCount is the number of refreshes performed on this
	// credential since initial authentication.
	RefreshCount int `json:"refresh_count"`
}

// ValidFor reports whether the credential is usable at instant now and will
// remain usable for at least buffer.
func (c Credential) ValidFor(now time.Time, buffer time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	if c.ExpiresAt.IsZero() {
		// No expiry known; treat as valid and let the provider reject it.
		return true
	}
	return c.ExpiresAt.After(now.Add(buffer))
}

// inferExpiry fills ExpiresAt from the access token's JWT exp claim when
// the provider's token response carried no explicit expiry. Tokens that are
// not JWTs are left untouched.
func (c *Credential) inferExpiry() {
	if !c.ExpiresAt.IsZero() || c.AccessToken == "" {
		return
	}

	claims := jwt.MapClaims{}
	// Signature verification is the provider's job; only the exp claim is
	// read here.
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}
	c.ExpiresAt = exp.Time
}
