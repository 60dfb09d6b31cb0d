package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/http/middleware"
)

type Handlers struct {
	Orders  *OrderHandler
	Pix     *PixHandler
	Webhook *WebhookHandler
	Cart    *CartHandler
	Token   *TokenHandler
}

func NewRouter(h Handlers, authz *middleware.Authz, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", h.Token.IssueToken)

	// Storefront order/payment surface. Paths match what the frontend
	// already calls; do not rename without coordinating a deploy.
	r.POST("/order-create", h.Orders.CreateOrder)
	r.GET("/order-get", h.Orders.GetOrder)
	r.POST("/order-status", authz.Require("orders.write"), h.Orders.UpdateStatus)

	r.POST("/pix-create", h.Pix.CreateCharge)
	r.GET("/pix-status", h.Pix.Status)
	r.GET("/pix-qr", h.Pix.QRCode)

	// The gateway posts to /anubis-webhook; /pix-webhook is a legacy alias
	// still configured on older transactions.
	r.POST("/anubis-webhook", h.Webhook.Handle)
	r.POST("/pix-webhook", h.Webhook.Handle)

	cart := r.Group("/cart")
	{
		cart.GET("", h.Cart.Get)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:key", h.Cart.UpdateItem)
		cart.DELETE("/items/:key", h.Cart.RemoveItem)
		cart.POST("/coupon", h.Cart.ApplyCoupon)
		cart.DELETE("/coupon", h.Cart.RemoveCoupon)
	}
	r.POST("/checkout", h.Cart.Checkout)

	return r
}
