package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrChargeNotFound = errors.New("charge not found")
	ErrMissingFields  = errors.New("missing required fields")
	ErrCPFRequired    = errors.New("CPF is required for PIX")
	ErrEmptyCart      = errors.New("cart is empty")
)

type OrderRepo interface {
	// Upsert tolerates client retries of order-create for the same id.
	Upsert(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) error
}

type ChargeRepo interface {
	// UpsertByOrderID is the race absorber: at most one charge row per
	// order id, whichever of create/webhook lands first.
	UpsertByOrderID(ctx context.Context, c *domain.Charge) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Charge, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Charge, error)

	// ConfirmPayment marks the charge paid and the order payment_confirmed
	// as one logical transition. It must be idempotent: re-confirming an
	// already-confirmed pair changes nothing and reports changed=false.
	ConfirmPayment(ctx context.Context, orderID, transactionID string, paidAt time.Time, raw []byte) (changed bool, err error)

	// CancelForExpiry marks the charge expired and cancels the order,
	// unless the order already moved past pending payment.
	CancelForExpiry(ctx context.Context, orderID, transactionID string, raw []byte) error

	// UpdateStatus records a non-terminal gateway status plus the raw
	// payload for audits.
	UpdateStatus(ctx context.Context, transactionID string, status anubis.Status, raw []byte) error
}

// Gateway is the outbound payment-provider port.
type Gateway interface {
	CreateTransaction(ctx context.Context, req anubis.CreateRequest) (*anubis.Transaction, error)
	GetTransaction(ctx context.Context, transactionID string) (*anubis.Transaction, error)
}

// ChargeLock narrows the concurrent-retry window on charge creation. It is
// best-effort; the durable guard is the charge upsert by order id.
type ChargeLock interface {
	TryLock(ctx context.Context, orderID string) (bool, error)
	Unlock(ctx context.Context, orderID string) error
}
