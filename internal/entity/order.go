package domain

import (
	"errors"
	"time"
)

type OrderStatus string

const (
	StatusPendingPayment   OrderStatus = "pending_payment"
	StatusPaymentConfirmed OrderStatus = "payment_confirmed"
	StatusPreparing        OrderStatus = "preparing"
	StatusReady            OrderStatus = "ready"
	StatusDelivering       OrderStatus = "delivering"
	StatusDelivered        OrderStatus = "delivered"
	StatusCancelled        OrderStatus = "cancelled"
)

// OrderStatusLabels maps statuses to the storefront's customer-facing labels.
var OrderStatusLabels = map[OrderStatus]string{
	StatusPendingPayment:   "Aguardando pagamento",
	StatusPaymentConfirmed: "Pagamento confirmado",
	StatusPreparing:        "Preparando",
	StatusReady:            "Pronto para entrega",
	StatusDelivering:       "Saiu para entrega",
	StatusDelivered:        "Entregue",
	StatusCancelled:        "Cancelado",
}

var statusRank = map[OrderStatus]int{
	StatusPendingPayment:   0,
	StatusPaymentConfirmed: 1,
	StatusPreparing:        2,
	StatusReady:            3,
	StatusDelivering:       4,
	StatusDelivered:        5,
}

var (
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrInvalidTotal       = errors.New("invalid order total")
	ErrMissingCustomer    = errors.New("customer name and phone are required")
	ErrUnknownPayMethod   = errors.New("unknown payment method")
	ErrUnknownDelivery    = errors.New("unknown delivery method")
	ErrFinalStatus        = errors.New("order is in a final status")
	ErrBackwardTransition = errors.New("order status cannot move backwards")
)

// ValidOrderStatus reports whether s belongs to the status vocabulary.
func ValidOrderStatus(s OrderStatus) bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to
// another. The forward chain only moves forward; cancellation is reachable
// from any state before delivery. Delivered and cancelled are terminal.
func CanTransition(from, to OrderStatus) bool {
	if !ValidOrderStatus(from) || !ValidOrderStatus(to) {
		return false
	}
	if from == StatusDelivered || from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return statusRank[to] > statusRank[from]
}

type PaymentMethod string

const (
	PayPix  PaymentMethod = "pix"
	PayCard PaymentMethod = "card"
	PayCash PaymentMethod = "cash"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PayPix || m == PayCard || m == PayCash
}

// InitialStatus seeds the order state machine: pay-on-delivery needs no
// payment confirmation, everything else waits for the gateway.
func InitialStatus(m PaymentMethod) OrderStatus {
	if m == PayCash {
		return StatusPaymentConfirmed
	}
	return StatusPendingPayment
}

type DeliveryMethod string

const (
	DeliveryToAddress DeliveryMethod = "delivery"
	DeliveryPickup    DeliveryMethod = "pickup"
)

func ValidDeliveryMethod(m DeliveryMethod) bool {
	return m == DeliveryToAddress || m == DeliveryPickup
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	CPF   string `json:"cpf,omitempty"`
}

type DeliveryAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

// Order is a snapshot of a finalized cart plus customer and delivery data.
// Financial fields are frozen at creation; only the status and the updated
// timestamp mutate afterwards.
type Order struct {
	ID                string           `json:"id"`
	Code              string           `json:"code"`
	Status            OrderStatus      `json:"status"`
	ItemsJSON         string           `json:"-"`
	Customer          Customer         `json:"customer"`
	DeliveryAddress   *DeliveryAddress `json:"deliveryAddress,omitempty"`
	DeliveryMethod    DeliveryMethod   `json:"deliveryMethod"`
	PaymentMethod     PaymentMethod    `json:"paymentMethod"`
	SubtotalCents     Cents            `json:"subtotalCents"`
	DeliveryFeeCents  Cents            `json:"deliveryFeeCents"`
	DiscountCents     Cents            `json:"discountCents"`
	TotalCents        Cents            `json:"totalCents"`
	CouponCode        string           `json:"couponCode,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery,omitempty"`
}

func (o *Order) Validate() error {
	if o.Customer.Name == "" || o.Customer.Phone == "" {
		return ErrMissingCustomer
	}
	if o.TotalCents <= 0 {
		return ErrInvalidTotal
	}
	if !ValidPaymentMethod(o.PaymentMethod) {
		return ErrUnknownPayMethod
	}
	if !ValidDeliveryMethod(o.DeliveryMethod) {
		return ErrUnknownDelivery
	}
	return nil
}
