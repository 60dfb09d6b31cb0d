package anubis

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

func TestCreateTransaction(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/payment-transaction/create", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"id": "tx-123",
				"status": "PENDING",
				"pix": {
					"qr_code": "000201010212...",
					"expiration_date": "2026-08-28T12:00:00Z"
				}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "pk_test", "sk_test", 5*time.Second)
	tx, err := c.CreateTransaction(context.Background(), CreateRequest{
		OrderID:     "order-1",
		AmountCents: 2590,
		Customer: Customer{
			Name:     "Maria Silva",
			Phone:    "11999990000",
			Document: Document{Type: "cpf", Number: "12345678901"},
		},
		Items: []Item{
			{Title: "Marmita de Feijoada", UnitCents: 2590, Quantity: 1, Tangible: true, ExternalRef: "order-1"},
		},
		PostbackURL: "https://example.com/anubis-webhook",
	})
	require.NoError(t, err)

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("pk_test:sk_test"))
	assert.Equal(t, wantAuth, gotAuth)

	assert.Equal(t, float64(2590), gotBody["amount"])
	assert.Equal(t, "pix", gotBody["payment_method"])
	assert.Equal(t, "https://example.com/anubis-webhook", gotBody["postback_url"])
	meta := gotBody["metadata"].(map[string]any)
	assert.Equal(t, "order-1", meta["orderId"])

	assert.Equal(t, "tx-123", tx.ID)
	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, "PENDING", tx.RawStatus)
	assert.Equal(t, "000201010212...", tx.CopyPasteCode)
	require.NotNil(t, tx.ExpirationDate)
	assert.Equal(t, 2026, tx.ExpirationDate.Year())
}

func TestCreateTransaction_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"invalid document number"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "pk", "sk", time.Second)
	_, err := c.CreateTransaction(context.Background(), CreateRequest{OrderID: "o1", AmountCents: 100})

	var gerr *GatewayError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode)
	assert.Contains(t, gerr.Body, "invalid document number")
}

func TestGetTransaction_PaidAtAliases(t *testing.T) {
	bodies := map[string]string{
		"snake":  `{"data":{"id":"tx-1","status":"PAID","paid_at":"2026-08-28T10:30:00Z"}}`,
		"camel":  `{"data":{"id":"tx-1","status":"CONFIRMED","paidAt":"2026-08-28T10:30:00Z"}}`,
		"legacy": `{"data":{"id":"tx-1","status":"APPROVED","confirmedAt":"2026-08-28T10:30:00Z"}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, "/v1/payment-transaction/info/tx-1", r.URL.Path)
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "pk", "sk", time.Second)
			tx, err := c.GetTransaction(context.Background(), "tx-1")
			require.NoError(t, err)
			assert.True(t, tx.Status.IsPaid())
			require.NotNil(t, tx.PaidAt)
		})
	}
}

func TestGetTransaction_UnwrappedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"tx-9","status":"EXPIRED"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "pk", "sk", time.Second)
	tx, err := c.GetTransaction(context.Background(), "tx-9")
	require.NoError(t, err)
	assert.Equal(t, "tx-9", tx.ID)
	assert.True(t, tx.Status.IsExpired())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
		paid bool
	}{
		{"PAID", StatusPaid, true},
		{"CONFIRMED", StatusConfirmed, true},
		{"APPROVED", StatusApproved, true},
		{"COMPLETED", StatusCompleted, true},
		{"PENDING", StatusPending, false},
		{"EXPIRED", StatusExpired, false},
		{"CANCELLED", StatusCancelled, false},
		{"", StatusUnknown, false},
		{"WAITING_PAYMENT", Status("waiting_payment"), false},
	}
	for _, tt := range tests {
		got := Normalize(tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
		assert.Equal(t, tt.paid, got.IsPaid(), tt.raw)
	}
}

func TestCentsJSONShape(t *testing.T) {
	// Gateway items must serialize unit_price as a bare integer.
	raw, err := json.Marshal(Item{Title: "x", UnitCents: domain.Cents(1990), Quantity: 2})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unit_price":1990`)
}
