package usecase

import (
	"context"
	"errors"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type GetOrder struct {
	orders  OrderRepo
	charges ChargeRepo
}

func NewGetOrder(orders OrderRepo, charges ChargeRepo) *GetOrder {
	return &GetOrder{orders: orders, charges: charges}
}

type OrderView struct {
	Order   *domain.Order  `json:"order"`
	Payment *domain.Charge `json:"payment"`
}

// Execute returns the order plus its charge, if one exists yet.
func (uc *GetOrder) Execute(ctx context.Context, orderID string) (*OrderView, error) {
	o, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	ch, err := uc.charges.GetByOrderID(ctx, orderID)
	if errors.Is(err, ErrChargeNotFound) {
		return &OrderView{Order: o}, nil
	}
	if err != nil {
		return nil, err
	}
	return &OrderView{Order: o, Payment: ch}, nil
}
