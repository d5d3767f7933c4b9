package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type refreshSessionRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CreateSession opens a new storefront session. Its cart and auth state are
// created lazily on first use.
func CreateSession(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pair, err := pkgauth.MintTokenPair(cfg, time.Now(), uuid.NewString())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session tokens"))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pair)
	}
}

// RefreshSession trades a refresh token for a new access token on the same
// session.
func RefreshSession(cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refreshSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims, err := pkgauth.ParseSessionToken(cfg, body.RefreshToken, pkgauth.TokenKindRefresh)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token"))
			return
		}

		access, expiresAt, err := pkgauth.MintSessionToken(cfg, time.Now(), claims.SessionID, pkgauth.TokenKindAccess)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}
		responses.WriteSuccess(w, pkgauth.TokenPair{
			SessionID:       claims.SessionID,
			AccessToken:     access,
			AccessExpiresAt: expiresAt,
		})
	}
}
