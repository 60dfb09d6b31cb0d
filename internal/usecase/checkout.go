package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/thiagobertoloto1-max/marmita-api/internal/cart"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type CheckoutInput struct {
	CartKey         string
	Customer        domain.Customer
	DeliveryAddress *domain.DeliveryAddress
	DeliveryMethod  domain.DeliveryMethod
	PaymentMethod   domain.PaymentMethod
	Notes           string
}

// Checkout finalizes a session cart into an order: the cart's priced item
// list and totals are frozen onto the order row, then the cart is cleared.
type Checkout struct {
	engine *cart.Engine
	create *CreateOrder
	log    *slog.Logger
}

func NewCheckout(engine *cart.Engine, create *CreateOrder, log *slog.Logger) *Checkout {
	return &Checkout{engine: engine, create: create, log: log}
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (*domain.Order, error) {
	c, err := uc.engine.Load(ctx, in.CartKey)
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", in.CartKey, err)
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return nil, fmt.Errorf("snapshot cart items: %w", err)
	}

	o, err := uc.create.Execute(ctx, CreateOrderInput{
		Customer:         in.Customer,
		DeliveryAddress:  in.DeliveryAddress,
		DeliveryMethod:   in.DeliveryMethod,
		PaymentMethod:    in.PaymentMethod,
		ItemsJSON:        string(itemsJSON),
		SubtotalCents:    c.SubtotalCents,
		DeliveryFeeCents: c.DeliveryFeeCents,
		DiscountCents:    c.DiscountCents,
		TotalCents:       c.TotalCents,
		CouponCode:       c.CouponCode,
		Notes:            in.Notes,
	})
	if err != nil {
		return nil, err
	}

	// Cart clearing is best-effort: the order exists either way, and a
	// stale cart only costs the customer a manual clear.
	if _, err := uc.engine.Clear(ctx, in.CartKey); err != nil {
		uc.log.Warn("failed to clear cart after checkout", "cart_key", in.CartKey, "order_id", o.ID, "error", err)
	}
	return o, nil
}
