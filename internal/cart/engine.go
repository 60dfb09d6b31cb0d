package cart

import (
	"context"

	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/pricing"
)

// Engine applies cart mutations. Every operation recomputes the cart and
// persists the result through the Store before returning it; no code path
// hands out a cart whose totals were not freshly recomputed.
type Engine struct {
	store        Store
	deliveryFee  domain.Cents
	discountRate float64
}

func NewEngine(store Store, deliveryFeeCents domain.Cents, siteDiscount float64) *Engine {
	return &Engine{store: store, deliveryFee: deliveryFeeCents, discountRate: siteDiscount}
}

// Load fetches the persisted cart for key, or an empty cart when absent.
// Stored totals are not trusted: the cart is recalculated before use.
func (e *Engine) Load(ctx context.Context, key string) (Cart, error) {
	c, ok, err := e.store.Load(ctx, key)
	if err != nil {
		return Cart{}, err
	}
	if !ok {
		c = Cart{DeliveryFeeCents: e.deliveryFee}
	}
	return Recalculate(c), nil
}

// AddItem merges by item key: an existing line gets its quantity bumped
// and its total recomputed from the new quantity; otherwise a new line is
// appended. The returned cart is recomputed and persisted.
func (e *Engine) AddItem(ctx context.Context, key string, c Cart, p *catalog.Product, size catalog.Size, choices []catalog.Choice, qty int, notes string) (Cart, error) {
	if qty <= 0 {
		return c, nil
	}

	addonIDs := make([]string, 0, len(choices))
	addons := make([]SelectedAddon, 0, len(choices))
	for _, ch := range choices {
		addonIDs = append(addonIDs, ch.ID)
		addons = append(addons, SelectedAddon{ID: ch.ID, Name: ch.Name, DeltaCents: ch.DeltaCents})
	}
	itemKey := ItemKey(p.ID, size.ID, addonIDs, notes)

	original := pricing.UnitPrice(p, size, choices)
	unit := pricing.ApplyDiscount(original, e.discountRate)

	merged := false
	for i := range c.Items {
		if c.Items[i].Key == itemKey {
			c.Items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		it := Item{
			Key:         itemKey,
			ProductID:   p.ID,
			ProductName: p.Name,
			SizeID:      size.ID,
			SizeName:    size.Name,
			Addons:      addons,
			Quantity:    qty,
			Notes:       notes,
			UnitCents:   unit,
		}
		if pricing.DiscountActive(e.discountRate) {
			it.OriginalUnitCents = original
		}
		c.Items = append(c.Items, it)
	}

	return e.persist(ctx, key, c)
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the
// line; an unknown item key is a silent no-op and returns the cart
// unchanged.
func (e *Engine) UpdateQuantity(ctx context.Context, key string, c Cart, itemKey string, qty int) (Cart, error) {
	if qty <= 0 {
		return e.RemoveItem(ctx, key, c, itemKey)
	}
	found := false
	for i := range c.Items {
		if c.Items[i].Key == itemKey {
			c.Items[i].Quantity = qty
			found = true
			break
		}
	}
	if !found {
		return c, nil
	}
	return e.persist(ctx, key, c)
}

func (e *Engine) RemoveItem(ctx context.Context, key string, c Cart, itemKey string) (Cart, error) {
	kept := c.Items[:0:0]
	for _, it := range c.Items {
		if it.Key != itemKey {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return e.persist(ctx, key, c)
}

// Clear resets the cart to empty and persists it (checkout completion).
func (e *Engine) Clear(ctx context.Context, key string) (Cart, error) {
	return e.persist(ctx, key, Cart{DeliveryFeeCents: e.deliveryFee})
}

// ApplyCoupon validates and applies a coupon code. On failure the original
// cart is returned untouched, nothing is persisted and the result carries
// a human-readable reason.
func (e *Engine) ApplyCoupon(ctx context.Context, key string, c Cart, code string) (Cart, CouponResult, error) {
	next, res := applyCoupon(c, code)
	if !res.Success {
		return c, res, nil
	}
	next, err := e.persist(ctx, key, next)
	return next, res, err
}

func (e *Engine) RemoveCoupon(ctx context.Context, key string, c Cart) (Cart, error) {
	return e.persist(ctx, key, removeCoupon(c))
}

func (e *Engine) persist(ctx context.Context, key string, c Cart) (Cart, error) {
	c = Recalculate(c)
	if err := e.store.Save(ctx, key, c); err != nil {
		return c, err
	}
	return c, nil
}
