package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *fakeOrderRepo) Upsert(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, id string, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = to
	return nil
}

// fakeChargeRepo optionally holds the order repo so it can apply the
// cross-table paid transition the real repo performs inside one SQL
// transaction.
type fakeChargeRepo struct {
	mu           sync.Mutex
	byOrder      map[string]*domain.Charge
	orders       *fakeOrderRepo
	confirmCount int // times ConfirmPayment actually changed state
}

func newFakeChargeRepo() *fakeChargeRepo {
	return &fakeChargeRepo{byOrder: map[string]*domain.Charge{}}
}

func (r *fakeChargeRepo) UpsertByOrderID(_ context.Context, c *domain.Charge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byOrder[c.OrderID] = &cp

	// mirror the MySQL repo: a real row claiming a transaction id evicts
	// the row a racing webhook parked under unknown_<txid>
	if !strings.HasPrefix(c.OrderID, "unknown_") && c.TransactionID != "" {
		for key, other := range r.byOrder {
			if key != c.OrderID && other.TransactionID == c.TransactionID &&
				strings.HasPrefix(key, "unknown_") {
				delete(r.byOrder, key)
			}
		}
	}
	return nil
}

func (r *fakeChargeRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byOrder[orderID]
	if !ok {
		return nil, ErrChargeNotFound
	}
	cp := *c
	return &cp, nil
}

// GetByTransactionID mirrors the MySQL repo's preference for a real row
// over a parked unknown_ one when both exist for the same transaction id.
func (r *fakeChargeRepo) GetByTransactionID(_ context.Context, txID string) (*domain.Charge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var parked *domain.Charge
	for _, c := range r.byOrder {
		if c.TransactionID != txID {
			continue
		}
		if strings.HasPrefix(c.OrderID, "unknown_") {
			parked = c
			continue
		}
		cp := *c
		return &cp, nil
	}
	if parked != nil {
		cp := *parked
		return &cp, nil
	}
	return nil, ErrChargeNotFound
}

// ConfirmPayment mirrors the MySQL repo's compare-and-set semantics: the
// transition only fires from pending_payment, replays change nothing.
func (r *fakeChargeRepo) ConfirmPayment(ctx context.Context, orderID, txID string, paidAt time.Time, raw []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byOrder[orderID]
	if !ok {
		return false, ErrChargeNotFound
	}
	changed := c.Status != string(anubis.StatusPaid)
	c.Status = string(anubis.StatusPaid)
	c.PaidAt = &paidAt
	c.RawResponse = string(raw)

	if r.orders != nil {
		if o, ok := r.orders.orders[orderID]; ok {
			if o.Status == domain.StatusPendingPayment {
				o.Status = domain.StatusPaymentConfirmed
			} else {
				changed = false
			}
		}
	}
	if changed {
		r.confirmCount++
	}
	return changed, nil
}

func (r *fakeChargeRepo) CancelForExpiry(_ context.Context, orderID, txID string, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byOrder[orderID]; ok {
		c.Status = string(anubis.StatusExpired)
		c.RawResponse = string(raw)
	}
	if r.orders != nil {
		if o, ok := r.orders.orders[orderID]; ok && o.Status == domain.StatusPendingPayment {
			o.Status = domain.StatusCancelled
		}
	}
	return nil
}

func (r *fakeChargeRepo) UpdateStatus(_ context.Context, txID string, status anubis.Status, raw []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byOrder {
		if c.TransactionID == txID {
			c.Status = string(status)
			c.RawResponse = string(raw)
			return nil
		}
	}
	return ErrChargeNotFound
}

type fakeGateway struct {
	createCalls int
	createResp  *anubis.Transaction
	createErr   error
	getResp     *anubis.Transaction
	getErr      error
	lastCreate  anubis.CreateRequest
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req anubis.CreateRequest) (*anubis.Transaction, error) {
	g.createCalls++
	g.lastCreate = req
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createResp, nil
}

func (g *fakeGateway) GetTransaction(_ context.Context, _ string) (*anubis.Transaction, error) {
	if g.getErr != nil {
		return nil, g.getErr
	}
	return g.getResp, nil
}

type fakeLock struct {
	locked map[string]bool
}

func newFakeLock() *fakeLock { return &fakeLock{locked: map[string]bool{}} }

func (l *fakeLock) TryLock(_ context.Context, orderID string) (bool, error) {
	if l.locked[orderID] {
		return false, nil
	}
	l.locked[orderID] = true
	return true, nil
}

func (l *fakeLock) Unlock(_ context.Context, orderID string) error {
	delete(l.locked, orderID)
	return nil
}
