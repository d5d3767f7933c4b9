package cart

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/session"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const productIDParam = "productId"

// Fetch returns the session's cart snapshot.
func Fetch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(sess.Cart.Snapshot()))
	}
}

// AddItem resolves the product through the catalog so the line carries the
// catalog's price, not one supplied by the client.
func AddItem(products catalog.Reader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if products == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := products.GetProduct(r.Context(), body.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, catalog.Translate(err))
			return
		}

		var variant *catalog.ProductVariant
		if body.VariantID != nil {
			v, ok := product.Variant(*body.VariantID)
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown variant").WithDetails(map[string]any{"variant_id": *body.VariantID}))
				return
			}
			variant = &v
		}

		state, err := sess.Cart.AddItem(r.Context(), *product, variant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartView(state))
	}
}

func UpdateQuantity(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, productID, ok := sessionAndProduct(w, r, logg)
		if !ok {
			return
		}

		var body updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.Cart.UpdateQuantity(r.Context(), productID, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state))
	}
}

// ApplyDiscount rejects unknown codes so clients can tell them apart from a
// code that was accepted.
func ApplyDiscount(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyDiscountRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, known := cartsvc.LookupDiscount(body.Code); !known {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount code").WithDetails(map[string]any{"code": body.Code}))
			return
		}

		state, err := sess.Cart.ApplyDiscount(r.Context(), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state))
	}
}

// MoveSelectedToWishlist forwards the moved products to the signed-in
// user's wishlist. The cart change stands even when forwarding fails.
func MoveSelectedToWishlist(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sess.Cart.MoveSelectedToWishlist(r.Context(), sess.Wishlist())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state))
	}
}

// productOp and cartOp match the method expressions of *cartsvc.Engine.
type productOp func(engine *cartsvc.Engine, ctx context.Context, productID int) (cartsvc.State, error)

func productHandler(op productOp, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, productID, ok := sessionAndProduct(w, r, logg)
		if !ok {
			return
		}
		state, err := op(sess.Cart, r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state))
	}
}

func RemoveItem(logg *logger.Logger) http.HandlerFunc {
	return productHandler((*cartsvc.Engine).RemoveItem, logg)
}

func SaveForLater(logg *logger.Logger) http.HandlerFunc {
	return productHandler((*cartsvc.Engine).SaveForLater, logg)
}

func MoveToCart(logg *logger.Logger) http.HandlerFunc {
	return productHandler((*cartsvc.Engine).MoveToCart, logg)
}

func ToggleGiftWrap(logg *logger.Logger) http.HandlerFunc {
	return productHandler((*cartsvc.Engine).ToggleGiftWrap, logg)
}

func ToggleSelection(logg *logger.Logger) http.HandlerFunc {
	return productHandler((*cartsvc.Engine).ToggleItemSelection, logg)
}

type cartOp func(engine *cartsvc.Engine, ctx context.Context) (cartsvc.State, error)

func cartHandler(op cartOp, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := middleware.RequireSession(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := op(sess.Cart, r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartView(state))
	}
}

func SelectAll(logg *logger.Logger) http.HandlerFunc {
	return cartHandler((*cartsvc.Engine).SelectAllItems, logg)
}

func DeselectAll(logg *logger.Logger) http.HandlerFunc {
	return cartHandler((*cartsvc.Engine).DeselectAllItems, logg)
}

func RemoveSelected(logg *logger.Logger) http.HandlerFunc {
	return cartHandler((*cartsvc.Engine).RemoveSelectedItems, logg)
}

func RemoveDiscount(logg *logger.Logger) http.HandlerFunc {
	return cartHandler((*cartsvc.Engine).RemoveDiscount, logg)
}

func Clear(logg *logger.Logger) http.HandlerFunc {
	return cartHandler((*cartsvc.Engine).Clear, logg)
}

func sessionAndProduct(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (*session.Session, int, bool) {
	sess, err := middleware.RequireSession(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, 0, false
	}
	productID, err := validators.ParsePathInt(r, productIDParam)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return nil, 0, false
	}
	return sess, productID, true
}
