package auth

import "github.com/angelmondragon/storefront-backend/internal/catalog"

// State is the persisted auth snapshot of one session.
type State struct {
	User    *catalog.User `json:"user"`
	Token   *string       `json:"token"`
	IsAdmin bool          `json:"is_admin"`
}

// Authenticated reports whether both a user and a token are present.
func (s State) Authenticated() bool {
	return s.User != nil && s.Token != nil
}

// UserID returns the logged-in user's id.
func (s State) UserID() (int, bool) {
	if s.User == nil {
		return 0, false
	}
	return s.User.ID, true
}

func (s State) clone() State {
	out := State{IsAdmin: s.IsAdmin}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Token != nil {
		t := *s.Token
		out.Token = &t
	}
	return out
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
