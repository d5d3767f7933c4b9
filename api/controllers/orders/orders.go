package orders

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Lister reads the signed-in user's orders from the remote API.
type Lister interface {
	ListOrders(ctx context.Context, token string) ([]catalog.Order, error)
}

// List returns the account's order history using the session's remote
// token.
func List(client Lister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders client unavailable"))
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

		orders, err := client.ListOrders(r.Context(), *state.Token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}
		if orders == nil {
			orders = []catalog.Order{}
		}
		responses.WriteSuccess(w, orders)
	}
}
