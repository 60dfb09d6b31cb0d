package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/logging"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	get    *usecase.GetOrder
	update *usecase.UpdateOrderStatus
}

func NewOrderHandler(create *usecase.CreateOrder, get *usecase.GetOrder, update *usecase.UpdateOrderStatus) *OrderHandler {
	return &OrderHandler{create: create, get: get, update: update}
}

type customerReq struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Email string `json:"email"`
	CPF   string `json:"cpf"`
}

type createOrderReq struct {
	OrderID         string                  `json:"orderId" binding:"required"`
	Customer        customerReq             `json:"customer" binding:"required"`
	Items           json.RawMessage         `json:"items"`
	Subtotal        float64                 `json:"subtotal"`
	DeliveryFee     float64                 `json:"deliveryFee"`
	Discount        float64                 `json:"discount"`
	Total           float64                 `json:"total" binding:"required"`
	PaymentMethod   string                  `json:"paymentMethod" binding:"required"`
	DeliveryMethod  string                  `json:"deliveryMethod"`
	DeliveryAddress *domain.DeliveryAddress `json:"deliveryAddress"`
	CouponCode      string                  `json:"couponCode"`
	Notes           string                  `json:"notes"`
}

// CreateOrder handles POST /order-create. Amounts arrive as decimal reais
// from the storefront and are converted to cents at this boundary.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	_, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		OrderID:   req.OrderID,
		ItemsJSON: string(req.Items),
		Customer: domain.Customer{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
			CPF:   req.Customer.CPF,
		},
		DeliveryAddress:  req.DeliveryAddress,
		DeliveryMethod:   domain.DeliveryMethod(req.DeliveryMethod),
		PaymentMethod:    domain.PaymentMethod(req.PaymentMethod),
		SubtotalCents:    domain.FromReais(req.Subtotal),
		DeliveryFeeCents: domain.FromReais(req.DeliveryFee),
		DiscountCents:    domain.FromReais(req.Discount),
		TotalCents:       domain.FromReais(req.Total),
		CouponCode:       req.CouponCode,
		Notes:            req.Notes,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMissingCustomer) || errors.Is(err, domain.ErrInvalidTotal) ||
			errors.Is(err, domain.ErrUnknownPayMethod) || errors.Is(err, domain.ErrUnknownDelivery) {
			status = http.StatusBadRequest
		}
		if status == http.StatusInternalServerError {
			logging.From(c).Error("order create failed", "order_id", req.OrderID, "error", err.Error())
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GetOrder handles GET /order-get?orderId=.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID := c.Query("orderId")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing orderId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	view, err := h.get.Execute(ctx, orderID)
	if errors.Is(err, usecase.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		logging.From(c).Error("order lookup failed", "order_id", orderID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, view)
}

type updateStatusReq struct {
	OrderID string `json:"orderId" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// UpdateStatus handles POST /order-status, the JWT-guarded fulfillment
// operation (preparing, ready, delivering, delivered, cancelled).
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	err := h.update.Execute(ctx, req.OrderID, domain.OrderStatus(req.Status))
	switch {
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFinalStatus), errors.Is(err, domain.ErrBackwardTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, usecase.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case err != nil:
		logging.From(c).Error("status update failed", "order_id", req.OrderID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
