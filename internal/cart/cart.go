// Package cart owns the authoritative shopping-cart state: line items,
// merge-by-key de-duplication, subtotal/discount/total recomputation and
// coupon application. All money is integer cents.
package cart

import (
	"sort"
	"strings"
	"unicode"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type SelectedAddon struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DeltaCents domain.Cents `json:"deltaCents"`
}

type Item struct {
	// Key is derived from (product, size, sorted addons, notes) and is the
	// merge key, not a random id: the same combination always lands on the
	// same line.
	Key               string          `json:"key"`
	ProductID         string          `json:"productId"`
	ProductName       string          `json:"productName"`
	SizeID            string          `json:"sizeId"`
	SizeName          string          `json:"sizeName"`
	Addons            []SelectedAddon `json:"addons,omitempty"`
	Quantity          int             `json:"quantity"`
	Notes             string          `json:"notes,omitempty"`
	UnitCents         domain.Cents    `json:"unitCents"`
	TotalCents        domain.Cents    `json:"totalCents"`
	OriginalUnitCents domain.Cents    `json:"originalUnitCents,omitempty"`
}

type Cart struct {
	Items            []Item       `json:"items"`
	SubtotalCents    domain.Cents `json:"subtotalCents"`
	DeliveryFeeCents domain.Cents `json:"deliveryFeeCents"`
	DiscountCents    domain.Cents `json:"discountCents"`
	TotalCents       domain.Cents `json:"totalCents"`
	CouponCode       string       `json:"couponCode,omitempty"`
}

// ItemKey builds the deterministic merge key for a line item.
func ItemKey(productID, sizeID string, addonIDs []string, notes string) string {
	ids := make([]string, len(addonIDs))
	copy(ids, addonIDs)
	sort.Strings(ids)
	raw := productID + "-" + sizeID + "-" + strings.Join(ids, ",") + "-" + notes
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Recalculate derives every computed field from first principles: item
// totals from unit price and quantity, subtotal from item totals, total
// from subtotal, fee and discount (clamped at zero). Stored totals are
// never trusted; every code path that hands out a cart runs this first.
func Recalculate(c Cart) Cart {
	var subtotal domain.Cents
	for i := range c.Items {
		c.Items[i].TotalCents = c.Items[i].UnitCents * domain.Cents(c.Items[i].Quantity)
		subtotal += c.Items[i].TotalCents
	}
	c.SubtotalCents = subtotal
	total := subtotal + c.DeliveryFeeCents - c.DiscountCents
	if total < 0 {
		total = 0
	}
	c.TotalCents = total
	return c
}

// ItemCount is the badge count: total units across all lines.
func ItemCount(c Cart) int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
