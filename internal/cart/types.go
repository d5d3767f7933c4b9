package cart

import (
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/shopspring/decimal"
)

// Line is one cart row. The product is a copy taken when the line was
// added, so later catalog price changes never reach existing lines.
type Line struct {
	catalog.Product
	Quantity          int                     `json:"quantity"`
	SelectedVariant   *catalog.ProductVariant `json:"selected_variant,omitempty"`
	GiftWrap          bool                    `json:"gift_wrap"`
	EstimatedDelivery string                  `json:"estimated_delivery"`
}

// sameIdentity reports whether adding (productID, variant) should merge
// into l: product ids match and both variants are absent or share an id.
func (l Line) sameIdentity(productID int, variant *catalog.ProductVariant) bool {
	if l.ID != productID {
		return false
	}
	switch {
	case l.SelectedVariant == nil && variant == nil:
		return true
	case l.SelectedVariant == nil || variant == nil:
		return false
	default:
		return l.SelectedVariant.ID == variant.ID
	}
}

// UnitPrice is the variant override when present, else the product price.
func (l Line) UnitPrice() decimal.Decimal {
	if l.SelectedVariant != nil && l.SelectedVariant.Price != nil {
		return *l.SelectedVariant.Price
	}
	return l.Price
}

func (l Line) clone() Line {
	out := l
	out.Product = cloneProduct(l.Product)
	if l.SelectedVariant != nil {
		v := cloneVariant(*l.SelectedVariant)
		out.SelectedVariant = &v
	}
	return out
}

// Totals are derived from items and the discount fraction; they are never
// set on their own.
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Shipping    decimal.Decimal `json:"shipping"`
	GiftWrapFee decimal.Decimal `json:"gift_wrap_fee"`
	Total       decimal.Decimal `json:"total"`
}

// State is the full cart snapshot, persisted and published as one value.
type State struct {
	Items      []Line            `json:"items"`
	SavedItems []Line            `json:"saved_items"`
	Wishlist   []catalog.Product `json:"wishlist"`
	// SelectedItems holds product ids of lines in Items.
	SelectedItems  []int           `json:"selected_items"`
	DiscountCode   *string         `json:"discount_code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Totals
}

// NewState is the empty cart.
func NewState() State {
	return State{
		Items:         []Line{},
		SavedItems:    []Line{},
		Wishlist:      []catalog.Product{},
		SelectedItems: []int{},
	}
}

// Clone deep-copies the snapshot so callers never share backing arrays
// with the engine.
func (s State) Clone() State {
	out := s
	out.Items = cloneLines(s.Items)
	out.SavedItems = cloneLines(s.SavedItems)
	out.Wishlist = make([]catalog.Product, len(s.Wishlist))
	for i, p := range s.Wishlist {
		out.Wishlist[i] = cloneProduct(p)
	}
	out.SelectedItems = append([]int{}, s.SelectedItems...)
	if s.DiscountCode != nil {
		code := *s.DiscountCode
		out.DiscountCode = &code
	}
	return out
}

// normalize replaces null collections from older snapshots with empty ones.
func (s State) normalize() State {
	if s.Items == nil {
		s.Items = []Line{}
	}
	if s.SavedItems == nil {
		s.SavedItems = []Line{}
	}
	if s.Wishlist == nil {
		s.Wishlist = []catalog.Product{}
	}
	if s.SelectedItems == nil {
		s.SelectedItems = []int{}
	}
	return s
}

// ItemCount is the number of units across all lines in Items.
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}

func (s State) hasItem(productID int) bool {
	for _, l := range s.Items {
		if l.ID == productID {
			return true
		}
	}
	return false
}

func (s State) isSelected(productID int) bool {
	for _, id := range s.SelectedItems {
		if id == productID {
			return true
		}
	}
	return false
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.clone()
	}
	return out
}

func cloneProduct(p catalog.Product) catalog.Product {
	out := p
	out.Images = append([]string(nil), p.Images...)
	if p.Variants != nil {
		out.Variants = make([]catalog.ProductVariant, len(p.Variants))
		for i, v := range p.Variants {
			out.Variants[i] = cloneVariant(v)
		}
	}
	if p.Stock != nil {
		stock := *p.Stock
		out.Stock = &stock
	}
	if p.Ratings != nil {
		ratings := *p.Ratings
		out.Ratings = &ratings
	}
	if p.Reviews != nil {
		reviews := *p.Reviews
		out.Reviews = &reviews
	}
	return out
}

func cloneVariant(v catalog.ProductVariant) catalog.ProductVariant {
	if v.Price != nil {
		price := *v.Price
		v.Price = &price
	}
	return v
}

// samePurchase reports whether s and other would be charged the same: same
// lines in the same order, same quantities, prices and gift wrap, and the
// same discount.
func (s State) samePurchase(other State) bool {
	if len(s.Items) != len(other.Items) || !s.Total.Equal(other.Total) {
		return false
	}
	if (s.DiscountCode == nil) != (other.DiscountCode == nil) ||
		(s.DiscountCode != nil && *s.DiscountCode != *other.DiscountCode) {
		return false
	}
	for i, l := range s.Items {
		o := other.Items[i]
		if !l.sameIdentity(o.ID, o.SelectedVariant) || l.Quantity != o.Quantity ||
			l.GiftWrap != o.GiftWrap || !l.UnitPrice().Equal(o.UnitPrice()) {
			return false
		}
	}
	return true
}
