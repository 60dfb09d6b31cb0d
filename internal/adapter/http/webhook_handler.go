package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	"github.com/thiagobertoloto1-max/marmita-api/internal/logging"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type WebhookHandler struct {
	reconciler *usecase.Reconciler
}

func NewWebhookHandler(reconciler *usecase.Reconciler) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler}
}

// Handle processes POST /anubis-webhook. The contract with the gateway
// is: 400 only for unparseable JSON, 500 only when our own store fails,
// 200 for everything else, including payloads we cannot act on. Anything
// but a 2xx makes the gateway retry.
func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	log := logging.From(c)
	ev, err := anubis.ParseWebhook(body, log)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	outcome, err := h.reconciler.HandleWebhook(ctx, ev)
	if err != nil {
		log.Error("webhook processing failed",
			"transaction_id", ev.TransactionID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}
