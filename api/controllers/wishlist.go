package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type wishlistView struct {
	ProductIDs []int `json:"product_ids"`
}

type wishlistEntryView struct {
	ProductID  int  `json:"product_id"`
	InWishlist bool `json:"in_wishlist"`
}

// WishlistList returns the signed-in user's wishlist. Anonymous sessions
// always see an empty list.
func WishlistList(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistView{ProductIDs: sess.Wishlist().Items()})
	}
}

func WishlistHas(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistEntryView{ProductID: productID, InWishlist: sess.Wishlist().Has(productID)})
	}
}

// WishlistAdd and WishlistRemove are no-ops for anonymous sessions.
func WishlistAdd(logg *logger.Logger) http.HandlerFunc {
	return wishlistMutation(wishlist.List.Add, logg)
}

func WishlistRemove(logg *logger.Logger) http.HandlerFunc {
	return wishlistMutation(wishlist.List.Remove, logg)
}

func wishlistMutation(op func(wishlist.List, context.Context, int) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParsePathInt(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list := sess.Wishlist()
		if err := op(list, r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wishlistView{ProductIDs: list.Items()})
	}
}
