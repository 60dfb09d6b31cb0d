package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thiagobertoloto1-max/marmita-api/internal/cart"
	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/logging"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

const sessionHeader = "X-Cart-Session"

type CartHandler struct {
	engine   *cart.Engine
	products catalog.Repository
	checkout *usecase.Checkout
}

func NewCartHandler(engine *cart.Engine, products catalog.Repository, checkout *usecase.Checkout) *CartHandler {
	return &CartHandler{engine: engine, products: products, checkout: checkout}
}

// session returns the caller's cart session id, minting one when the
// header is absent. The id is always echoed back so the storefront can
// persist it.
func (h *CartHandler) session(c *gin.Context) string {
	sid := c.GetHeader(sessionHeader)
	if sid == "" {
		sid = uuid.NewString()
	}
	c.Header(sessionHeader, sid)
	return sid
}

// Get handles GET /cart.
func (h *CartHandler) Get(c *gin.Context) {
	sid := h.session(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

type addItemReq struct {
	ProductID string   `json:"productId" binding:"required"`
	SizeID    string   `json:"sizeId"`
	AddonIDs  []string `json:"addonIds"`
	Quantity  int      `json:"quantity" binding:"required"`
	Notes     string   `json:"notes"`
}

// AddItem handles POST /cart/items. The product, size and addon choices
// are resolved against the catalog; client-supplied prices are never
// trusted.
func (h *CartHandler) AddItem(c *gin.Context) {
	sid := h.session(c)

	var req addItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	p, err := h.products.GetProduct(ctx, req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		h.storeError(c, sid, err)
		return
	}

	var size catalog.Size
	if req.SizeID != "" {
		var ok bool
		if size, ok = p.Size(req.SizeID); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown size for product"})
			return
		}
	} else if len(p.Sizes) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product requires a size"})
		return
	}

	if err := p.ValidateSelection(req.AddonIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	choices := make([]catalog.Choice, 0, len(req.AddonIDs))
	for _, id := range req.AddonIDs {
		ch, _ := p.Choice(id)
		choices = append(choices, ch)
	}

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	ct, err = h.engine.AddItem(ctx, sid, ct, p, size, choices, req.Quantity, req.Notes)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

type updateItemReq struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PATCH /cart/items/:key. Quantity zero removes the
// line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	sid := h.session(c)
	itemKey := c.Param("key")

	var req updateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	ct, err = h.engine.UpdateQuantity(ctx, sid, ct, itemKey, req.Quantity)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

// RemoveItem handles DELETE /cart/items/:key.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	sid := h.session(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	ct, err = h.engine.RemoveItem(ctx, sid, ct, c.Param("key"))
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

// Clear handles DELETE /cart.
func (h *CartHandler) Clear(c *gin.Context) {
	sid := h.session(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Clear(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

type couponReq struct {
	Code string `json:"code" binding:"required"`
}

// ApplyCoupon handles POST /cart/coupon. A rejected coupon is not an
// HTTP error: the response carries the unchanged cart plus the reason.
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	sid := h.session(c)

	var req couponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	ct, res, err := h.engine.ApplyCoupon(ctx, sid, ct, req.Code)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct, "result": res})
}

// RemoveCoupon handles DELETE /cart/coupon.
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	sid := h.session(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	ct, err := h.engine.Load(ctx, sid)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	ct, err = h.engine.RemoveCoupon(ctx, sid, ct)
	if err != nil {
		h.storeError(c, sid, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": ct})
}

type checkoutReq struct {
	Customer        customerReq             `json:"customer" binding:"required"`
	PaymentMethod   string                  `json:"paymentMethod" binding:"required"`
	DeliveryMethod  string                  `json:"deliveryMethod"`
	DeliveryAddress *domain.DeliveryAddress `json:"deliveryAddress"`
	Notes           string                  `json:"notes"`
}

// Checkout handles POST /checkout: turns the session cart into an order
// priced from the server-side cart state.
func (h *CartHandler) Checkout(c *gin.Context) {
	sid := h.session(c)

	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	order, err := h.checkout.Execute(ctx, usecase.CheckoutInput{
		CartKey: sid,
		Customer: domain.Customer{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
			CPF:   req.Customer.CPF,
		},
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		DeliveryMethod:  domain.DeliveryMethod(req.DeliveryMethod),
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
	})
	switch {
	case errors.Is(err, usecase.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
	case errors.Is(err, domain.ErrMissingCustomer), errors.Is(err, domain.ErrUnknownPayMethod),
		errors.Is(err, domain.ErrUnknownDelivery):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.storeError(c, sid, err)
	default:
		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

func (h *CartHandler) storeError(c *gin.Context, sid string, err error) {
	logging.From(c).Error("cart operation failed", "session", sid, "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
