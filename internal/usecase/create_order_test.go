package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiagobertoloto1-max/marmita-api/internal/cart"
	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

func orderInput(method domain.PaymentMethod) CreateOrderInput {
	return CreateOrderInput{
		OrderID:        "order_abc123",
		Customer:       domain.Customer{Name: "Maria Silva", Phone: "11999990000"},
		DeliveryMethod: domain.DeliveryToAddress,
		PaymentMethod:  method,
		SubtotalCents:  3980,
		TotalCents:     3980,
	}
}

func TestCreateOrder_PixStartsPendingPayment(t *testing.T) {
	repo := newFakeOrderRepo()
	uc := NewCreateOrder(repo)

	o, err := uc.Execute(context.Background(), orderInput(domain.PayPix))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingPayment, o.Status)
	assert.Equal(t, "order_abc123", o.ID)
	assert.NotEmpty(t, o.Code)
	require.NotNil(t, o.EstimatedDelivery)
	assert.Equal(t, 45.0, o.EstimatedDelivery.Sub(o.CreatedAt).Minutes())
}

func TestCreateOrder_CashIsConfirmedImmediately(t *testing.T) {
	uc := NewCreateOrder(newFakeOrderRepo())

	o, err := uc.Execute(context.Background(), orderInput(domain.PayCash))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaymentConfirmed, o.Status)
}

func TestCreateOrder_MintsIDWhenAbsent(t *testing.T) {
	uc := NewCreateOrder(newFakeOrderRepo())

	in := orderInput(domain.PayPix)
	in.OrderID = ""
	a, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	b, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	// Creation is not idempotent by id: every call mints a fresh order.
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateOrder_PickupDropsDeliveryFee(t *testing.T) {
	uc := NewCreateOrder(newFakeOrderRepo())

	in := orderInput(domain.PayCash)
	in.DeliveryMethod = domain.DeliveryPickup
	in.DeliveryFeeCents = 500
	o, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Zero(t, o.DeliveryFeeCents)
	assert.Equal(t, 30.0, o.EstimatedDelivery.Sub(o.CreatedAt).Minutes())
}

func TestCreateOrder_Validation(t *testing.T) {
	uc := NewCreateOrder(newFakeOrderRepo())

	noCustomer := orderInput(domain.PayPix)
	noCustomer.Customer.Name = ""
	_, err := uc.Execute(context.Background(), noCustomer)
	assert.ErrorIs(t, err, domain.ErrMissingCustomer)

	noTotal := orderInput(domain.PayPix)
	noTotal.TotalCents = 0
	_, err = uc.Execute(context.Background(), noTotal)
	assert.ErrorIs(t, err, domain.ErrInvalidTotal)

	badMethod := orderInput(domain.PaymentMethod("check"))
	_, err = uc.Execute(context.Background(), badMethod)
	assert.ErrorIs(t, err, domain.ErrUnknownPayMethod)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newFakeOrderRepo()
	create := NewCreateOrder(repo)
	o, err := create.Execute(context.Background(), orderInput(domain.PayCash))
	require.NoError(t, err)

	uc := NewUpdateOrderStatus(repo)
	require.NoError(t, uc.Execute(context.Background(), o.ID, domain.StatusPreparing))

	got, _ := repo.GetByID(context.Background(), o.ID)
	assert.Equal(t, domain.StatusPreparing, got.Status)

	err = uc.Execute(context.Background(), o.ID, domain.OrderStatus("shipped"))
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	err = uc.Execute(context.Background(), "missing", domain.StatusReady)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	err = uc.Execute(context.Background(), o.ID, domain.StatusPaymentConfirmed)
	assert.ErrorIs(t, err, domain.ErrBackwardTransition)

	require.NoError(t, uc.Execute(context.Background(), o.ID, domain.StatusDelivered))
	err = uc.Execute(context.Background(), o.ID, domain.StatusPreparing)
	assert.ErrorIs(t, err, domain.ErrFinalStatus)
}

func TestCheckout_SnapshotsCartAndClearsIt(t *testing.T) {
	store := cart.NewMemoryStore()
	engine := cart.NewEngine(store, 0, 0)
	repo := newFakeOrderRepo()
	uc := NewCheckout(engine, NewCreateOrder(repo), discard())
	ctx := context.Background()

	p := &catalog.Product{ID: "marmita-1", Name: "Marmita", BaseCents: 1990}
	c, _ := engine.Load(ctx, "sess-1")
	c, err := engine.AddItem(ctx, "sess-1", c, p, catalog.Size{}, nil, 2, "")
	require.NoError(t, err)

	o, err := uc.Execute(ctx, CheckoutInput{
		CartKey:        "sess-1",
		Customer:       domain.Customer{Name: "Maria Silva", Phone: "11999990000"},
		DeliveryMethod: domain.DeliveryToAddress,
		PaymentMethod:  domain.PayPix,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Cents(3980), o.TotalCents)
	assert.Contains(t, o.ItemsJSON, "marmita-1")

	// Later cart mutations never touch the frozen order.
	after, err := engine.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, after.Items)

	stored, _ := repo.GetByID(ctx, o.ID)
	assert.Equal(t, domain.Cents(3980), stored.TotalCents)
}

func TestCheckout_EmptyCart(t *testing.T) {
	engine := cart.NewEngine(cart.NewMemoryStore(), 0, 0)
	uc := NewCheckout(engine, NewCreateOrder(newFakeOrderRepo()), discard())

	_, err := uc.Execute(context.Background(), CheckoutInput{
		CartKey:        "empty",
		Customer:       domain.Customer{Name: "Maria", Phone: "11"},
		DeliveryMethod: domain.DeliveryToAddress,
		PaymentMethod:  domain.PayPix,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}
