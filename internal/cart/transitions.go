package cart

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// Every transition below is a total function: it never mutates the
// receiver and returns the next snapshot with totals recomputed. Operations
// keyed by product id touch every line of that product, and are no-ops when
// no such line exists.

// AddItem merges into the line with the same product and variant, or
// appends a new line with quantity 1. Stock is not checked here.
func (s State) AddItem(product catalog.Product, variant *catalog.ProductVariant, now time.Time) State {
	next := s.Clone()
	for i := range next.Items {
		if next.Items[i].sameIdentity(product.ID, variant) {
			next.Items[i].Quantity++
			return next.withTotals()
		}
	}
	line := Line{
		Product:           cloneProduct(product),
		Quantity:          1,
		EstimatedDelivery: EstimateDelivery(now),
	}
	if variant != nil {
		v := cloneVariant(*variant)
		line.SelectedVariant = &v
	}
	next.Items = append(next.Items, line)
	return next.withTotals()
}

func (s State) RemoveItem(productID int) State {
	if !s.hasItem(productID) {
		return s
	}
	next := s.Clone()
	next.Items, _ = partition(next.Items, productID)
	next.SelectedItems = without(next.SelectedItems, productID)
	return next.withTotals()
}

// RemoveSelectedItems drops every selected line and clears the selection.
func (s State) RemoveSelectedItems() State {
	if len(s.SelectedItems) == 0 {
		return s
	}
	next := s.Clone()
	kept := next.Items[:0]
	for _, l := range next.Items {
		if !s.isSelected(l.ID) {
			kept = append(kept, l)
		}
	}
	next.Items = kept
	next.SelectedItems = []int{}
	return next.withTotals()
}

// UpdateQuantity writes quantity through as given, zero and negative
// values included. Callers that want a floor must enforce it.
func (s State) UpdateQuantity(productID, quantity int) State {
	if !s.hasItem(productID) {
		return s
	}
	next := s.Clone()
	for i := range next.Items {
		if next.Items[i].ID == productID {
			next.Items[i].Quantity = quantity
		}
	}
	return next.withTotals()
}

// SaveForLater moves the product's lines from Items to SavedItems.
func (s State) SaveForLater(productID int) State {
	if !s.hasItem(productID) {
		return s
	}
	next := s.Clone()
	var moved []Line
	next.Items, moved = partition(next.Items, productID)
	next.SavedItems = append(next.SavedItems, moved...)
	next.SelectedItems = without(next.SelectedItems, productID)
	return next.withTotals()
}

// MoveToCart moves saved lines back with a fresh delivery estimate. A line
// whose product and variant are already in the cart is merged into it: the
// quantities add up and gift wrap stays on if either line had it.
func (s State) MoveToCart(productID int, now time.Time) State {
	next := s.Clone()
	var moved []Line
	next.SavedItems, moved = partition(next.SavedItems, productID)
	if len(moved) == 0 {
		return s
	}
	for _, l := range moved {
		merged := false
		for i := range next.Items {
			if next.Items[i].sameIdentity(l.ID, l.SelectedVariant) {
				next.Items[i].Quantity += l.Quantity
				next.Items[i].GiftWrap = next.Items[i].GiftWrap || l.GiftWrap
				merged = true
				break
			}
		}
		if !merged {
			l.EstimatedDelivery = EstimateDelivery(now)
			next.Items = append(next.Items, l)
		}
	}
	return next.withTotals()
}

// ToggleGiftWrap flips the flag; only the gift wrap fee and total move.
func (s State) ToggleGiftWrap(productID int) State {
	if !s.hasItem(productID) {
		return s
	}
	next := s.Clone()
	for i := range next.Items {
		if next.Items[i].ID == productID {
			next.Items[i].GiftWrap = !next.Items[i].GiftWrap
		}
	}
	return next.withTotals()
}

// ToggleItemSelection ignores ids that are not in Items so the selection
// stays a subset of the cart.
func (s State) ToggleItemSelection(productID int) State {
	if !s.hasItem(productID) {
		return s
	}
	next := s.Clone()
	if s.isSelected(productID) {
		next.SelectedItems = without(next.SelectedItems, productID)
	} else {
		next.SelectedItems = append(next.SelectedItems, productID)
	}
	return next
}

// SelectAllItems selects what is in the cart now; later additions are not
// selected.
func (s State) SelectAllItems() State {
	next := s.Clone()
	next.SelectedItems = []int{}
	seen := map[int]bool{}
	for _, l := range next.Items {
		if !seen[l.ID] {
			seen[l.ID] = true
			next.SelectedItems = append(next.SelectedItems, l.ID)
		}
	}
	return next
}

func (s State) DeselectAllItems() State {
	next := s.Clone()
	next.SelectedItems = []int{}
	return next
}

// MoveSelectedToWishlist mirrors the selected products into the local
// Wishlist (one entry per product) and removes the selected lines. It
// returns the product ids that were moved.
func (s State) MoveSelectedToWishlist() (State, []int) {
	if len(s.SelectedItems) == 0 {
		return s, nil
	}
	next := s.Clone()
	moved := make([]int, 0, len(s.SelectedItems))
	for _, id := range s.SelectedItems {
		product, ok := next.productInItems(id)
		if !ok {
			continue
		}
		moved = append(moved, id)
		if !next.inWishlist(id) {
			next.Wishlist = append(next.Wishlist, product)
		}
	}
	return next.RemoveSelectedItems(), moved
}

// ApplyDiscount records a known code; unknown codes leave the state as is.
func (s State) ApplyDiscount(code string) State {
	fraction, ok := LookupDiscount(code)
	if !ok {
		return s
	}
	next := s.Clone()
	next.DiscountCode = &code
	next.DiscountAmount = fraction
	return next.withTotals()
}

func (s State) RemoveDiscount() State {
	next := s.Clone()
	next.DiscountCode = nil
	next.DiscountAmount = decimal.Zero
	return next.withTotals()
}

func (s State) withTotals() State {
	s.Totals = CalculateTotals(s.Items, s.DiscountAmount)
	return s
}

func (s State) productInItems(productID int) (catalog.Product, bool) {
	for _, l := range s.Items {
		if l.ID == productID {
			return cloneProduct(l.Product), true
		}
	}
	return catalog.Product{}, false
}

func (s State) inWishlist(productID int) bool {
	for _, p := range s.Wishlist {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// partition splits lines into those not matching productID and those that do.
func partition(lines []Line, productID int) (rest, matched []Line) {
	rest = make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ID == productID {
			matched = append(matched, l)
		} else {
			rest = append(rest, l)
		}
	}
	return rest, matched
}

func without(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Clear empties the cart, the saved lines, the selection and the discount.
// The staged wishlist survives.
func (s State) Clear() State {
	next := NewState()
	next.Wishlist = s.Clone().Wishlist
	return next
}
