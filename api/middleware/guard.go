package middleware

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/guard"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RedirectBody accompanies a 303 issued by Guard.
type RedirectBody struct {
	RedirectTo string `json:"redirect_to"`
}

// Guard applies policy to the session's login. Denied requests get
// 303 See Other pointing at the policy's redirect target.
func Guard(policy guard.Policy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := SessionFromContext(r.Context())
			if sess == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required"))
				return
			}
			decision := policy.Evaluate(sess.Auth.Snapshot())
			if !decision.Allowed {
				if logg != nil {
					ctx := logg.WithField(r.Context(), "redirect_to", decision.Redirect)
					logg.Info(ctx, "guard.redirect")
				}
				w.Header().Set("Location", decision.Redirect)
				responses.WriteSuccessStatus(w, http.StatusSeeOther, RedirectBody{RedirectTo: decision.Redirect})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
