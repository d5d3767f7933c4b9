// Package guard decides whether a session may reach a protected route.
package guard

import "github.com/angelmondragon/storefront-backend/internal/auth"

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Policy describes a route's access rule. AllowIfAuthed marks guest-only
// routes such as the login page.
type Policy struct {
	RequireAdmin  bool
	AllowIfAuthed bool
	RedirectTo    string
}

// Decision is the outcome of a Policy check. Redirect is set when Allowed
// is false.
type Decision struct {
	Allowed  bool
	Redirect string
}

// Evaluate applies p to state. Rules are checked in order and the first
// that fires wins.
func (p Policy) Evaluate(state auth.State) Decision {
	hasUser := state.User != nil
	switch {
	case !hasUser && !p.AllowIfAuthed:
		return deny(p.redirectOr(LoginPath))
	case p.RequireAdmin && !state.IsAdmin:
		return deny(HomePath)
	case p.AllowIfAuthed && hasUser:
		return deny(p.redirectOr(HomePath))
	}
	return Decision{Allowed: true}
}

func (p Policy) redirectOr(fallback string) string {
	if p.RedirectTo != "" {
		return p.RedirectTo
	}
	return fallback
}

func deny(to string) Decision {
	return Decision{Redirect: to}
}

// Common policies.
var (
	Authenticated = Policy{}
	Admin         = Policy{RequireAdmin: true}
	GuestOnly     = Policy{AllowIfAuthed: true}
)
