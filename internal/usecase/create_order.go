package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type CreateOrderInput struct {
	// OrderID may be supplied by the caller (the storefront mints its own
	// ids before calling order-create); empty means mint one here.
	OrderID          string
	Customer         domain.Customer
	DeliveryAddress  *domain.DeliveryAddress
	DeliveryMethod   domain.DeliveryMethod
	PaymentMethod    domain.PaymentMethod
	ItemsJSON        string
	SubtotalCents    domain.Cents
	DeliveryFeeCents domain.Cents
	DiscountCents    domain.Cents
	TotalCents       domain.Cents
	CouponCode       string
	Notes            string
}

type CreateOrder struct {
	repo OrderRepo
	now  func() time.Time
}

func NewCreateOrder(repo OrderRepo) *CreateOrder {
	return &CreateOrder{repo: repo, now: time.Now}
}

// Execute snapshots the finalized cart into an order row. A fresh call
// mints a fresh id and code: order creation is not idempotent by id, the
// duplicate-charge guard lives in the reconciler. Pay-on-delivery orders
// skip straight to payment_confirmed.
func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if in.DeliveryMethod == "" {
		in.DeliveryMethod = domain.DeliveryToAddress
	}

	now := uc.now()
	estimated := estimatedDelivery(now, in.DeliveryMethod)

	fee := in.DeliveryFeeCents
	if in.DeliveryMethod == domain.DeliveryPickup {
		fee = 0
	}

	o := &domain.Order{
		ID:                in.OrderID,
		Code:              newOrderCode(now),
		Status:            domain.InitialStatus(in.PaymentMethod),
		ItemsJSON:         in.ItemsJSON,
		Customer:          in.Customer,
		DeliveryAddress:   in.DeliveryAddress,
		DeliveryMethod:    in.DeliveryMethod,
		PaymentMethod:     in.PaymentMethod,
		SubtotalCents:     in.SubtotalCents,
		DeliveryFeeCents:  fee,
		DiscountCents:     in.DiscountCents,
		TotalCents:        in.TotalCents,
		CouponCode:        in.CouponCode,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
		EstimatedDelivery: &estimated,
	}
	if o.ID == "" {
		o.ID = "order_" + uuid.NewString()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Upsert(ctx, o); err != nil {
		return nil, fmt.Errorf("create order %s: %w", o.ID, err)
	}
	return o, nil
}

func estimatedDelivery(now time.Time, m domain.DeliveryMethod) time.Time {
	if m == domain.DeliveryPickup {
		return now.Add(30 * time.Minute)
	}
	return now.Add(45 * time.Minute)
}

// newOrderCode builds the short human-readable code printed on receipts:
// base-36 timestamp plus four random base-36 characters, uppercased.
func newOrderCode(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return ts + string(suffix)
}
