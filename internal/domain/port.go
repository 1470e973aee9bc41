package domain

import "context"

// Credentials is a login submission.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is a new-user submission.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Authenticator exchanges credentials for a session token. Implementations
// must flag these calls as login attempts at the transport layer so their
// rejections are surfaced rather than auto-redirected.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (token string, err error)
	Register(ctx context.Context, reg Registration) (token string, err error)
}

// IdentityReader resolves the authenticated user behind a token. Both login
// and startup restore go through the same read.
type IdentityReader interface {
	Whoami(ctx context.Context) (*Identity, error)
}

// TokenStorage persists the opaque session token across process runs.
// Absence of a stored token is the sole signal for "no prior session" and is
// reported as ErrNoStoredToken.
type TokenStorage interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// CredentialSink is where the session store pushes token changes. The
// transport gateway implements it; no other component writes the credential.
type CredentialSink interface {
	SetToken(token string)
	ClearToken()
}

// CacheClearer discards all cached query results. The session store calls it
// on logout so a following session never sees the previous user's balances.
type CacheClearer interface {
	Clear()
}
