package cart

import (
	"strings"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// CouponResult is a typed outcome, not an error: an invalid coupon is
// expected user input, and the cart is left untouched on failure.
type CouponResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type couponRule struct {
	flatCents    domain.Cents
	freeDelivery bool
	// minSubtotalCents gates the coupon: the subtotal must be strictly
	// above this value. Zero means no gate.
	minSubtotalCents domain.Cents
	thresholdError   string
}

func (r couponRule) discount(c Cart) domain.Cents {
	if r.freeDelivery {
		return c.DeliveryFeeCents
	}
	return r.flatCents
}

// Codes are stored uppercase; lookup normalizes.
var coupons = map[string]couponRule{
	"PRIMEIRACOMPRA": {
		flatCents:        1000,
		minSubtotalCents: 4990,
		thresholdError:   "O cupom PRIMEIRACOMPRA é válido apenas para compras acima de R$49,90",
	},
	"DIVINO10": {flatCents: 1000},
	"SABOR20":  {flatCents: 2000},
	"FRETE":    {freeDelivery: true},
}

const errInvalidCoupon = "Cupom inválido"

// applyCoupon resolves the rule for code against the cart. It either
// returns the cart with discount and coupon code set (recomputed), or the
// original cart plus a failure result. It never partially applies.
func applyCoupon(c Cart, code string) (Cart, CouponResult) {
	code = strings.ToUpper(strings.TrimSpace(code))

	rule, ok := coupons[code]
	if !ok {
		return c, CouponResult{Success: false, Error: errInvalidCoupon}
	}
	if rule.minSubtotalCents > 0 && c.SubtotalCents <= rule.minSubtotalCents {
		return c, CouponResult{Success: false, Error: rule.thresholdError}
	}

	c.DiscountCents = rule.discount(c)
	c.CouponCode = code
	return Recalculate(c), CouponResult{Success: true}
}

func removeCoupon(c Cart) Cart {
	c.DiscountCents = 0
	c.CouponCode = ""
	return Recalculate(c)
}
