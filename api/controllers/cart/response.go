package cart

import cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"

type cartView struct {
	cartsvc.State
	ItemCount int `json:"item_count"`
}

func newCartView(state cartsvc.State) cartView {
	return cartView{State: state, ItemCount: state.ItemCount()}
}
