package usecase

import (
	"context"
	"fmt"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// UpdateOrderStatus is the fulfillment-side operation: preparing, ready,
// delivering, delivered, cancelled. Payment confirmation never goes
// through here; that transition belongs to the reconciler.
type UpdateOrderStatus struct {
	orders OrderRepo
}

func NewUpdateOrderStatus(orders OrderRepo) *UpdateOrderStatus {
	return &UpdateOrderStatus{orders: orders}
}

func (uc *UpdateOrderStatus) Execute(ctx context.Context, orderID string, to domain.OrderStatus) error {
	if !domain.ValidOrderStatus(to) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, to)
	}

	o, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !domain.CanTransition(o.Status, to) {
		if o.Status == domain.StatusDelivered || o.Status == domain.StatusCancelled {
			return fmt.Errorf("%w: %s", domain.ErrFinalStatus, o.Status)
		}
		return fmt.Errorf("%w: %s -> %s", domain.ErrBackwardTransition, o.Status, to)
	}

	return uc.orders.UpdateStatus(ctx, orderID, to)
}
