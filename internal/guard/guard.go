// Package guard decides whether a navigation target is permitted for the
// current session state. It is a pure function of (status, path): no network
// calls, no cache reads.
package guard

import (
	"strings"

	"github.com/finch-bank/finchctl/internal/domain"
)

// Action is the guard's verdict for one navigation.
type Action int

const (
	// ActionAllow lets the navigation proceed.
	ActionAllow Action = iota
	// ActionRedirectToEntry sends an unauthenticated user to the login page,
	// preserving the requested path for post-login return.
	ActionRedirectToEntry
	// ActionRedirectToHome sends an authenticated user away from entry pages
	// to the default landing page.
	ActionRedirectToHome
	// ActionWait means the session is still restoring; render a neutral
	// waiting state instead of guessing a redirect.
	ActionWait
)

func (a Action) String() string {
	switch a {
	case ActionRedirectToEntry:
		return "redirect_to_entry"
	case ActionRedirectToHome:
		return "redirect_to_home"
	case ActionWait:
		return "wait"
	default:
		return "allow"
	}
}

// Decision is the guard's verdict plus where to go.
type Decision struct {
	Action   Action
	Target   string
	ReturnTo string
}

// Guard evaluates navigations against the route table.
type Guard struct {
	entryPaths []string
	loginPath  string
	homePath   string
}

// New creates a guard with the default route table.
func New() *Guard {
	return &Guard{
		entryPaths: []string{"/login", "/register"},
		loginPath:  "/login",
		homePath:   "/dashboard",
	}
}

// Decide returns the verdict for navigating to path under the given status.
func (g *Guard) Decide(status domain.SessionStatus, path string) Decision {
	if status == domain.StatusRestoring {
		return Decision{Action: ActionWait}
	}

	entry := g.isEntry(path)

	switch status {
	case domain.StatusAuthenticated:
		if entry {
			return Decision{Action: ActionRedirectToHome, Target: g.homePath}
		}
		return Decision{Action: ActionAllow}
	default:
		if entry {
			return Decision{Action: ActionAllow}
		}
		return Decision{Action: ActionRedirectToEntry, Target: g.loginPath, ReturnTo: path}
	}
}

// HomePath returns the default authenticated landing page.
func (g *Guard) HomePath() string { return g.homePath }

// LoginPath returns the unauthenticated entry page.
func (g *Guard) LoginPath() string { return g.loginPath }

func (g *Guard) isEntry(path string) bool {
	for _, entry := range g.entryPaths {
		if path == entry || strings.HasPrefix(path, entry+"/") {
			return true
		}
	}
	return false
}
