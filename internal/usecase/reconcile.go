package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// Reconciler ties orders to their PIX charges: it applies gateway webhooks
// and client-driven status polls, both idempotently. The paid transition
// (charge paid + order payment_confirmed) is one logical step; replays are
// no-ops.
type Reconciler struct {
	orders  OrderRepo
	charges ChargeRepo
	gateway Gateway
	log     *slog.Logger
	now     func() time.Time
}

func NewReconciler(orders OrderRepo, charges ChargeRepo, gateway Gateway, log *slog.Logger) *Reconciler {
	return &Reconciler{orders: orders, charges: charges, gateway: gateway, log: log, now: time.Now}
}

type WebhookOutcome struct {
	Processed bool   `json:"processed"`
	Deferred  bool   `json:"deferred,omitempty"`
	Note      string `json:"note,omitempty"`
}

// HandleWebhook applies a gateway postback. A payload with no resolvable
// transaction id, or one whose order is not yet in the store, is not an
// error: the gateway must not retry a webhook that was received but not
// yet actionable. The racing case is parked under a synthetic order
// reference for a later pass.
func (r *Reconciler) HandleWebhook(ctx context.Context, ev *anubis.WebhookEvent) (WebhookOutcome, error) {
	if ev.TransactionID == "" {
		return WebhookOutcome{Processed: false, Note: "no transaction id in payload"}, nil
	}

	ch, err := r.charges.GetByTransactionID(ctx, ev.TransactionID)
	switch {
	case errors.Is(err, ErrChargeNotFound):
		// Webhook raced the create call. Park it so later reconciliation
		// can match it up, and acknowledge.
		deferred := &domain.Charge{
			TransactionID: ev.TransactionID,
			OrderID:       domain.DeferredOrderRef(ev.TransactionID),
			Provider:      "anubispay",
			Status:        ev.RawStatus,
			RawResponse:   string(ev.Raw),
			CreatedAt:     r.now(),
			UpdatedAt:     r.now(),
		}
		if uerr := r.charges.UpsertByOrderID(ctx, deferred); uerr != nil {
			return WebhookOutcome{}, fmt.Errorf("defer webhook for tx %s: %w", ev.TransactionID, uerr)
		}
		r.log.Info("webhook arrived before order create, deferred",
			"transaction_id", ev.TransactionID, "status", ev.Status)
		return WebhookOutcome{Processed: true, Deferred: true, Note: "webhook received before create"}, nil
	case err != nil:
		return WebhookOutcome{}, fmt.Errorf("lookup charge for tx %s: %w", ev.TransactionID, err)
	}

	return r.apply(ctx, ch, ev.Status, paidAtOrNow(ev.PaidAt, r.now), ev.Raw)
}

// Poll asks the gateway for the charge's current state and applies the
// same side effects as the webhook path. Safe to call any number of
// times; once the order is payment_confirmed, repeats are no-ops.
type PollResult struct {
	Status string          `json:"status"`
	PaidAt *time.Time      `json:"paidAt"`
	Raw    json.RawMessage `json:"raw"`
}

func (r *Reconciler) Poll(ctx context.Context, transactionID string) (*PollResult, error) {
	tx, err := r.gateway.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	res := &PollResult{Status: tx.RawStatus, PaidAt: tx.PaidAt, Raw: tx.Raw}

	ch, err := r.charges.GetByTransactionID(ctx, transactionID)
	if errors.Is(err, ErrChargeNotFound) {
		// Nothing local to reconcile against; report the gateway's view.
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup charge for tx %s: %w", transactionID, err)
	}

	paidAt := r.now()
	if tx.PaidAt != nil {
		paidAt = *tx.PaidAt
	}
	if _, err := r.apply(ctx, ch, tx.Status, paidAt, tx.Raw); err != nil {
		return nil, err
	}
	return res, nil
}

// apply routes a normalized status onto the charge/order pair. Deferred
// charges (unknown_ order refs) only get their stored status refreshed;
// there is no order row to transition yet.
func (r *Reconciler) apply(ctx context.Context, ch *domain.Charge, status anubis.Status, paidAt time.Time, raw []byte) (WebhookOutcome, error) {
	deferred := strings.HasPrefix(ch.OrderID, "unknown_")

	switch {
	case status.IsPaid() && !deferred:
		changed, err := r.charges.ConfirmPayment(ctx, ch.OrderID, ch.TransactionID, paidAt, raw)
		if err != nil {
			return WebhookOutcome{}, fmt.Errorf("confirm payment for order %s: %w", ch.OrderID, err)
		}
		if changed {
			r.log.Info("payment confirmed", "order_id", ch.OrderID, "transaction_id", ch.TransactionID)
		}
		return WebhookOutcome{Processed: true}, nil

	case status.IsExpired() && !deferred:
		if err := r.charges.CancelForExpiry(ctx, ch.OrderID, ch.TransactionID, raw); err != nil {
			return WebhookOutcome{}, fmt.Errorf("expire charge for order %s: %w", ch.OrderID, err)
		}
		r.log.Info("charge expired, order cancelled", "order_id", ch.OrderID, "transaction_id", ch.TransactionID)
		return WebhookOutcome{Processed: true}, nil

	default:
		// A stale pending delivered after the paid webhook must not wind
		// the charge back.
		if anubis.Normalize(ch.Status).IsPaid() {
			return WebhookOutcome{Processed: true}, nil
		}
		if err := r.charges.UpdateStatus(ctx, ch.TransactionID, status, raw); err != nil {
			return WebhookOutcome{}, fmt.Errorf("update charge status for tx %s: %w", ch.TransactionID, err)
		}
		return WebhookOutcome{Processed: true}, nil
	}
}

func paidAtOrNow(s string, now func() time.Time) time.Time {
	if s != "" {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return now()
}
