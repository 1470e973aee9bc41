package domain

import "time"

// Identity is the authenticated user as reported by the backend's
// session-identity read. Login never synthesizes one from the login response;
// it is always resolved through that read.
type Identity struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	JoinedAt time.Time `json:"created_at"`
}

// SessionStatus is the authentication state machine's current position.
type SessionStatus int

const (
	// StatusUnauthenticated means no valid session exists.
	StatusUnauthenticated SessionStatus = iota
	// StatusRestoring means a persisted token is being validated at startup.
	// The route guard makes no redirect decision while in this state.
	StatusRestoring
	// StatusAuthenticated means both token and identity are present.
	StatusAuthenticated
)

func (s SessionStatus) String() string {
	switch s {
	case StatusRestoring:
		return "restoring"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a snapshot of the session store's state. Status is
// StatusAuthenticated iff both Token and User are set.
type Session struct {
	Token  string
	User   *Identity
	Status SessionStatus
}
