package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

func seedOrderAndCharge(t *testing.T, orders *fakeOrderRepo, charges *fakeChargeRepo, orderID, txID string) {
	t.Helper()
	require.NoError(t, orders.Upsert(context.Background(), &domain.Order{
		ID:             orderID,
		Code:           "TESTCODE",
		Status:         domain.StatusPendingPayment,
		Customer:       domain.Customer{Name: "Maria", Phone: "11999990000"},
		DeliveryMethod: domain.DeliveryToAddress,
		PaymentMethod:  domain.PayPix,
		TotalCents:     2590,
	}))
	require.NoError(t, charges.UpsertByOrderID(context.Background(), &domain.Charge{
		TransactionID: txID,
		OrderID:       orderID,
		Provider:      "anubispay",
		Status:        string(anubis.StatusPending),
	}))
}

func paidWebhook(txID string) *anubis.WebhookEvent {
	raw := `{"Id":"` + txID + `","Status":"PAID"}`
	ev, _ := anubis.ParseWebhook([]byte(raw), nil)
	return ev
}

func TestHandleWebhook_PaidConfirmsOrderOnce(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-1")

	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	// Gateway retry policy can deliver the same webhook several times.
	for i := 0; i < 3; i++ {
		out, err := r.HandleWebhook(context.Background(), paidWebhook("tx-1"))
		require.NoError(t, err)
		assert.True(t, out.Processed)
	}

	o, err := orders.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
	assert.Equal(t, 1, charges.confirmCount, "paid transition must apply exactly once")

	ch, err := charges.GetByOrderID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, string(anubis.StatusPaid), ch.Status)
	require.NotNil(t, ch.PaidAt)
}

func TestHandleWebhook_UnknownTransactionIsDeferred(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	out, err := r.HandleWebhook(context.Background(), paidWebhook("tx-race"))
	require.NoError(t, err)
	assert.True(t, out.Processed)
	assert.True(t, out.Deferred)

	parked, err := charges.GetByOrderID(context.Background(), "unknown_tx-race")
	require.NoError(t, err)
	assert.Equal(t, "tx-race", parked.TransactionID)
	assert.NotEmpty(t, parked.RawResponse)
}

func TestHandleWebhook_ParkedRowDoesNotShadowRealCharge(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders

	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	// webhook first, order second: the payload gets parked
	_, err := r.HandleWebhook(context.Background(), paidWebhook("tx-race"))
	require.NoError(t, err)

	// the create path catches up and claims the transaction id
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-race")

	// the parked duplicate must be gone, not merely outranked
	_, err = charges.GetByOrderID(context.Background(), domain.DeferredOrderRef("tx-race"))
	assert.ErrorIs(t, err, ErrChargeNotFound)

	// retries of the paid webhook now land on the real row and confirm
	for i := 0; i < 3; i++ {
		out, err := r.HandleWebhook(context.Background(), paidWebhook("tx-race"))
		require.NoError(t, err)
		assert.True(t, out.Processed)
		assert.False(t, out.Deferred)
	}

	o, err := orders.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
	assert.Equal(t, 1, charges.confirmCount)
}

func TestHandleWebhook_NoTransactionIDIsAcknowledged(t *testing.T) {
	r := NewReconciler(newFakeOrderRepo(), newFakeChargeRepo(), &fakeGateway{}, discard())

	ev, err := anubis.ParseWebhook([]byte(`{"event":"ping"}`), nil)
	require.NoError(t, err)

	out, err := r.HandleWebhook(context.Background(), ev)
	require.NoError(t, err, "unmatched payloads are acknowledged, never errored")
	assert.False(t, out.Processed)
	assert.NotEmpty(t, out.Note)
}

func TestHandleWebhook_ExpiredCancelsOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-1")

	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	ev, _ := anubis.ParseWebhook([]byte(`{"Id":"tx-1","Status":"EXPIRED"}`), nil)
	_, err := r.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)

	o, _ := orders.GetByID(context.Background(), "order-1")
	assert.Equal(t, domain.StatusCancelled, o.Status)
}

func TestHandleWebhook_PendingOnlyRefreshesCharge(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-1")

	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	ev, _ := anubis.ParseWebhook([]byte(`{"Id":"tx-1","Status":"PENDING"}`), nil)
	_, err := r.HandleWebhook(context.Background(), ev)
	require.NoError(t, err)

	o, _ := orders.GetByID(context.Background(), "order-1")
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
}

func TestHandleWebhook_StalePendingAfterPaidDoesNotDowngrade(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-1")

	r := NewReconciler(orders, charges, &fakeGateway{}, discard())

	_, err := r.HandleWebhook(context.Background(), paidWebhook("tx-1"))
	require.NoError(t, err)

	stale, _ := anubis.ParseWebhook([]byte(`{"Id":"tx-1","Status":"PENDING"}`), nil)
	_, err = r.HandleWebhook(context.Background(), stale)
	require.NoError(t, err)

	o, _ := orders.GetByID(context.Background(), "order-1")
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status, "a late pending webhook must not undo the confirmation")
}

func TestPoll_PaidAppliesSameTransition(t *testing.T) {
	orders := newFakeOrderRepo()
	charges := newFakeChargeRepo()
	charges.orders = orders
	seedOrderAndCharge(t, orders, charges, "order-1", "tx-1")

	paidAt := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	gw := &fakeGateway{getResp: &anubis.Transaction{
		ID:        "tx-1",
		Status:    anubis.StatusPaid,
		RawStatus: "PAID",
		PaidAt:    &paidAt,
		Raw:       json.RawMessage(`{"data":{"id":"tx-1","status":"PAID"}}`),
	}}
	r := NewReconciler(orders, charges, gw, discard())

	// Polling is the fallback path; it must be safe to repeat.
	for i := 0; i < 3; i++ {
		res, err := r.Poll(context.Background(), "tx-1")
		require.NoError(t, err)
		assert.Equal(t, "PAID", res.Status)
		require.NotNil(t, res.PaidAt)
	}

	o, _ := orders.GetByID(context.Background(), "order-1")
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
	assert.Equal(t, 1, charges.confirmCount)

	ch, _ := charges.GetByOrderID(context.Background(), "order-1")
	require.NotNil(t, ch.PaidAt)
	assert.True(t, ch.PaidAt.Equal(paidAt))
}

func TestPoll_GatewayErrorPropagates(t *testing.T) {
	gw := &fakeGateway{getErr: &anubis.GatewayError{StatusCode: 500, Body: "upstream down"}}
	r := NewReconciler(newFakeOrderRepo(), newFakeChargeRepo(), gw, discard())

	_, err := r.Poll(context.Background(), "tx-1")
	var gerr *anubis.GatewayError
	require.ErrorAs(t, err, &gerr)
}

func TestPoll_NoLocalChargeStillReportsGatewayView(t *testing.T) {
	gw := &fakeGateway{getResp: &anubis.Transaction{
		ID: "tx-9", Status: anubis.StatusPending, RawStatus: "PENDING",
		Raw: json.RawMessage(`{}`),
	}}
	r := NewReconciler(newFakeOrderRepo(), newFakeChargeRepo(), gw, discard())

	res, err := r.Poll(context.Background(), "tx-9")
	require.NoError(t, err)
	assert.Equal(t, "PENDING", res.Status)
}
