// Package credential keeps OAuth credentials valid across provider calls.
//
// A Manager owns one credential per subject (a user identity on one
// platform, e.g. "google:user@example.com"). EnsureValid returns a usable
// credential, refreshing proactively when the current one is expired or
// will expire within the configured buffer window. Concurrent EnsureValid
// calls for the same subject observe single-flight semantics: the first
// caller performs the refresh and every concurrent caller awaits that same
// in-flight refresh.
//
//	mgr := credential.NewManager(credential.ManagerConfig{
//	    Store:     secretStore,
//	    Refresher: credential.NewOAuth2Refresher(oauthCfg),
//	})
//
//	cred, err := mgr.EnsureValid(ctx, "google:user@example.com")
//
// A revoked or invalid refresh token is terminal: EnsureValid returns
// ErrReauthRequired and the caller must re-authenticate; the manager never
// retries that failure.
package credential
