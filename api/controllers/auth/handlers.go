package auth

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const maxNameLength = 120

type registerRequest struct {
	auth.Credentials
	Name string `json:"name" validate:"required,max=120"`
}

type updateProfileRequest struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Email  *string `json:"email,omitempty" validate:"omitempty,email"`
	Avatar *string `json:"avatar,omitempty" validate:"omitempty,url"`
}

type updatePreferencesRequest struct {
	Theme         string `json:"theme" validate:"required,oneof=light dark system"`
	Notifications bool   `json:"notifications"`
}

// stateView is the client's view of the session login. The remote token
// stays on the server.
type stateView struct {
	Authenticated bool          `json:"authenticated"`
	User          *catalog.User `json:"user"`
	IsAdmin       bool          `json:"is_admin"`
}

func newStateView(state auth.State) stateView {
	return stateView{
		Authenticated: state.Authenticated(),
		User:          state.User,
		IsAdmin:       state.IsAdmin,
	}
}

// PreferencesClient stores user preferences remotely.
type PreferencesClient interface {
	UpdatePreferences(ctx context.Context, token string, prefs catalog.UserPreferences) (*catalog.UserPreferences, error)
}

// Login signs the session in. The admin pair is checked locally; anything
// else goes to the remote API.
func Login(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.Credentials
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.Auth.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, newStateView(state))
	}
}

func Register(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body registerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		name := validators.SanitizeString(body.Name, maxNameLength)
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name is required"))
			return
		}

		state, err := sess.Auth.Register(r.Context(), body.Credentials, name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newStateView(state))
	}
}

// Logout always signs the session out; a failed write is still reported.
func Logout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.Auth.Logout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStateView(state))
	}
}

func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStateView(sess.Auth.Snapshot()))
	}
}

func UpdateMe(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if body.Name != nil {
			name := validators.SanitizeString(*body.Name, maxNameLength)
			body.Name = &name
		}

		state, err := sess.Auth.UpdateProfile(r.Context(), catalog.ProfileUpdate{
			Name:   body.Name,
			Email:  body.Email,
			Avatar: body.Avatar,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, newStateView(state))
	}
}

func UpdatePreferences(client PreferencesClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "preferences client unavailable"))
			return
		}
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := sess.Auth.Snapshot()
		if !state.Authenticated() {
			responses.WriteError(r.Context(), logg, w, auth.ErrNotAuthenticated)
			return
		}

		var body updatePreferencesRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prefs, err := client.UpdatePreferences(r.Context(), *state.Token, catalog.UserPreferences{
			Theme:         body.Theme,
			Notifications: body.Notifications,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		responses.WriteSuccess(w, prefs)
	}
}
