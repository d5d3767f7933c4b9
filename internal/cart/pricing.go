package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	GiftWrapFeePerUnit    = decimal.NewFromInt(5)
	FreeShippingThreshold = decimal.NewFromInt(100)
	FlatShippingRate      = decimal.NewFromInt(10)
)

var discountCodes = map[string]decimal.Decimal{
	"SAVE10":   decimal.RequireFromString("0.10"),
	"SAVE20":   decimal.RequireFromString("0.20"),
	"FREESHIP": decimal.Zero,
}

// LookupDiscount returns the fraction for code. Codes are case-sensitive.
func LookupDiscount(code string) (decimal.Decimal, bool) {
	fraction, ok := discountCodes[code]
	return fraction, ok
}

// CalculateTotals derives the cart totals:
//
//	subtotal    = sum(unit price * quantity)
//	giftWrapFee = sum(5 * quantity) over gift-wrapped lines
//	shipping    = 0 above 100, else 10
//	total       = subtotal + shipping + giftWrapFee - subtotal * discount
//
// The formula holds for an emptied cart too, which is charged the flat
// shipping rate. Only a new or cleared cart carries zero totals.
func CalculateTotals(items []Line, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	giftWrap := decimal.Zero
	for _, l := range items {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.UnitPrice().Mul(qty))
		if l.GiftWrap {
			giftWrap = giftWrap.Add(GiftWrapFeePerUnit.Mul(qty))
		}
	}
	shipping := FlatShippingRate
	if subtotal.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	return Totals{
		Subtotal:    subtotal,
		Shipping:    shipping,
		GiftWrapFee: giftWrap,
		Total:       subtotal.Add(shipping).Add(giftWrap).Sub(subtotal.Mul(discount)),
	}
}

const deliveryDateLayout = "1/2/2006"

// EstimateDelivery is the "<now+3d> - <now+5d>" window shown on a line.
func EstimateDelivery(now time.Time) string {
	start := now.AddDate(0, 0, 3)
	end := now.AddDate(0, 0, 5)
	return fmt.Sprintf("%s - %s", start.Format(deliveryDateLayout), end.Format(deliveryDateLayout))
}
