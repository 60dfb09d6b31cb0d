// Package anubis is the AnubisPay payment-gateway adapter: it translates
// internal charge requests into the gateway's schema, parses the gateway's
// loosely-shaped responses back into one internal form, and normalizes the
// gateway's status vocabulary.
package anubis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

// GatewayError carries the gateway's own status code and raw body so a
// non-2xx response is never silently swallowed.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("anubispay: gateway returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// NewClient builds a gateway client. Authorization is HTTP Basic over the
// public/secret key pair.
func NewClient(baseURL, publicKey, secretKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	token := base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + secretKey))
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		authToken: "Basic " + token,
		http:      &http.Client{Timeout: timeout},
	}
}

type Document struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

type Customer struct {
	Name     string   `json:"name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone"`
	Document Document `json:"document"`
}

type Item struct {
	Title       string       `json:"title"`
	UnitCents   domain.Cents `json:"unit_price"`
	Quantity    int          `json:"quantity"`
	Tangible    bool         `json:"tangible"`
	ExternalRef string       `json:"external_ref"`
}

type CreateRequest struct {
	OrderID     string
	AmountCents domain.Cents
	Customer    Customer
	Items       []Item
	PostbackURL string
}

// Transaction is the normalized view of a gateway charge.
type Transaction struct {
	ID             string
	Status         Status
	RawStatus      string
	CopyPasteCode  string
	ExpirationDate *time.Time
	PaidAt         *time.Time
	Raw            json.RawMessage
}

type createBody struct {
	Amount        domain.Cents      `json:"amount"`
	PaymentMethod string            `json:"payment_method"`
	PostbackURL   string            `json:"postback_url"`
	Customer      Customer          `json:"customer"`
	Items         []Item            `json:"items"`
	Metadata      map[string]string `json:"metadata"`
}

// CreateTransaction issues a PIX charge. Amounts are integer centavos;
// each item defaults to tangible with the order id as external reference
// (the caller fills those in before handing the request over).
func (c *Client) CreateTransaction(ctx context.Context, req CreateRequest) (*Transaction, error) {
	body := createBody{
		Amount:        req.AmountCents,
		PaymentMethod: "pix",
		PostbackURL:   req.PostbackURL,
		Customer:      req.Customer,
		Items:         req.Items,
		Metadata:      map[string]string{"orderId": req.OrderID, "source": "marmita-api"},
	}
	return c.do(ctx, http.MethodPost, "/v1/payment-transaction/create", body)
}

// GetTransaction fetches the current gateway-side state of a charge.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	return c.do(ctx, http.MethodGet, "/v1/payment-transaction/info/"+transactionID, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*Transaction, error) {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("anubispay: encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("anubispay: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anubispay: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("anubispay: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return parseTransaction(raw)
}

// Envelope fields the gateway nests under "data". Field names have been
// seen in more than one casing; parseTransaction falls back through the
// known aliases.
type txEnvelope struct {
	Data *txData `json:"data"`
	// Some responses skip the envelope entirely.
	txData
}

type txData struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Pix    *struct {
		QRCode         string `json:"qr_code"`
		ExpirationDate string `json:"expiration_date"`
	} `json:"pix"`
	PaidAt      string `json:"paid_at"`
	PaidAtAlt   string `json:"paidAt"`
	ConfirmedAt string `json:"confirmedAt"`
}

func parseTransaction(raw []byte) (*Transaction, error) {
	var env txEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("anubispay: decode response: %w", err)
	}
	data := env.txData
	if env.Data != nil {
		data = *env.Data
	}
	if data.ID == "" {
		return nil, fmt.Errorf("anubispay: response has no transaction id: %s", string(raw))
	}

	tx := &Transaction{
		ID:        data.ID,
		Status:    Normalize(data.Status),
		RawStatus: data.Status,
		Raw:       json.RawMessage(raw),
	}
	if data.Pix != nil {
		tx.CopyPasteCode = data.Pix.QRCode
		tx.ExpirationDate = parseTime(data.Pix.ExpirationDate)
	}
	for _, v := range []string{data.PaidAt, data.PaidAtAlt, data.ConfirmedAt} {
		if v != "" {
			tx.PaidAt = parseTime(v)
			break
		}
	}
	return tx, nil
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
