// Package pricing computes unit prices for cart items. Everything works on
// integer cents; a site-wide discount rate is an explicit parameter so a
// price is always a deterministic function of its inputs.
package pricing

import (
	"math"

	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// UnitPrice returns product base (promo price when flagged and present)
// plus the size delta plus the sum of the chosen addon deltas.
func UnitPrice(p *catalog.Product, size catalog.Size, choices []catalog.Choice) domain.Cents {
	base := p.BaseCents
	if p.IsPromo && p.PromoCents > 0 {
		base = p.PromoCents
	}
	total := base + size.DeltaCents
	for _, c := range choices {
		total += c.DeltaCents
	}
	return total
}

// ApplyDiscount applies a site-wide discount rate (0 <= rate < 1) to an
// amount, rounding half-up at the cent boundary. Rate zero is an exact
// no-op: the amount is returned without any float round-trip.
func ApplyDiscount(amount domain.Cents, rate float64) domain.Cents {
	if rate <= 0 {
		return amount
	}
	return domain.Cents(math.Floor(float64(amount)*(1-rate) + 0.5))
}

// DiscountActive reports whether the rate actually discounts anything.
func DiscountActive(rate float64) bool {
	return rate > 0
}
