package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/logging"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type PixHandler struct {
	create      *usecase.CreateCharge
	reconciler  *usecase.Reconciler
	charges     usecase.ChargeRepo
	postbackURL string
}

func NewPixHandler(create *usecase.CreateCharge, reconciler *usecase.Reconciler, charges usecase.ChargeRepo, postbackURL string) *PixHandler {
	return &PixHandler{create: create, reconciler: reconciler, charges: charges, postbackURL: postbackURL}
}

// Amounts on this endpoint are integer centavos, matching what the
// storefront already sends; items use the gateway's snake_case field
// names.
type pixItemReq struct {
	Title       string `json:"title" binding:"required"`
	UnitCents   int64  `json:"unit_price" binding:"required,gt=0"`
	Quantity    int    `json:"quantity" binding:"required,gt=0"`
	Tangible    *bool  `json:"tangible"`
	ExternalRef string `json:"external_ref"`
}

type pixCreateReq struct {
	OrderID     string       `json:"orderId" binding:"required"`
	AmountCents int64        `json:"amount" binding:"required,gt=0"`
	Customer    customerReq  `json:"customer" binding:"required"`
	Items       []pixItemReq `json:"items" binding:"required,dive"`
}

// CreateCharge handles POST /pix-create. Duplicate calls for the same
// order return the already-created transaction instead of charging twice.
func (h *PixHandler) CreateCharge(c *gin.Context) {
	var req pixCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields", "details": err.Error()})
		return
	}

	in := usecase.CreateChargeInput{
		OrderID:     req.OrderID,
		AmountCents: domain.Cents(req.AmountCents),
		Customer: domain.Customer{
			Name:  req.Customer.Name,
			Phone: req.Customer.Phone,
			Email: req.Customer.Email,
			CPF:   req.Customer.CPF,
		},
		PostbackURL: h.resolvePostback(c),
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, usecase.ChargeItem{
			Title:       it.Title,
			UnitCents:   domain.Cents(it.UnitCents),
			Quantity:    it.Quantity,
			Tangible:    it.Tangible,
			ExternalRef: it.ExternalRef,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	out, err := h.create.Execute(ctx, in)
	if err != nil {
		h.writeChargeError(c, req.OrderID, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *PixHandler) writeChargeError(c *gin.Context, orderID string, err error) {
	switch {
	case errors.Is(err, usecase.ErrMissingFields), errors.Is(err, usecase.ErrCPFRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var gwErr *anubis.GatewayError
		if errors.As(err, &gwErr) {
			logging.From(c).Error("anubispay rejected charge",
				"order_id", orderID, "gateway_status", gwErr.StatusCode)
			c.JSON(gwErr.StatusCode, gin.H{
				"error":   "AnubisPay error",
				"details": json.RawMessage(gwErr.Body),
			})
			return
		}
		logging.From(c).Error("pix create failed", "order_id", orderID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// resolvePostback prefers the configured public callback URL and falls
// back to reconstructing one from the proxy headers of this request.
func (h *PixHandler) resolvePostback(c *gin.Context) string {
	if h.postbackURL != "" {
		return h.postbackURL
	}
	scheme := c.GetHeader("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}
	if host == "" {
		return ""
	}
	return scheme + "://" + host + "/anubis-webhook"
}

// Status handles GET /pix-status?transactionId=. Polling doubles as
// reconciliation: a paid answer confirms the order even if the webhook
// never lands.
func (h *PixHandler) Status(c *gin.Context) {
	txID := c.Query("transactionId")
	if txID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing transactionId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	res, err := h.reconciler.Poll(ctx, txID)
	if err != nil {
		var gwErr *anubis.GatewayError
		if errors.As(err, &gwErr) {
			c.JSON(gwErr.StatusCode, gin.H{
				"error":   "AnubisPay error",
				"details": json.RawMessage(gwErr.Body),
			})
			return
		}
		logging.From(c).Error("pix status poll failed", "transaction_id", txID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// QRCode handles GET /pix-qr?orderId= (or ?transactionId=): renders the
// stored copy-paste code as a PNG so the storefront can show it without
// a client-side QR library.
func (h *PixHandler) QRCode(c *gin.Context) {
	orderID := c.Query("orderId")
	txID := c.Query("transactionId")
	if orderID == "" && txID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing orderId or transactionId"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var ch *domain.Charge
	var err error
	if orderID != "" {
		ch, err = h.charges.GetByOrderID(ctx, orderID)
	} else {
		ch, err = h.charges.GetByTransactionID(ctx, txID)
	}
	if errors.Is(err, usecase.ErrChargeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charge not found"})
		return
	}
	if err != nil {
		logging.From(c).Error("charge lookup failed", "order_id", orderID, "transaction_id", txID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if ch.CopyPasteCode == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Charge has no copy-paste code"})
		return
	}

	png, err := qrcode.Encode(ch.CopyPasteCode, qrcode.Medium, 320)
	if err != nil {
		logging.From(c).Error("qr encode failed", "order_id", orderID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
