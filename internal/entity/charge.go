package domain

import "time"

// Charge is a PIX payment charge issued by the gateway, keyed by the
// gateway's transaction id and foreign-keyed to an order. The order link
// may be established after the charge exists: a webhook can arrive before
// the order-create call persists its row, in which case the charge is
// parked under a synthetic "unknown_<txID>" order reference until a later
// reconciliation pass matches it up.
type Charge struct {
	TransactionID  string     `json:"transactionId"`
	OrderID        string     `json:"orderId"`
	Provider       string     `json:"provider"`
	Status         string     `json:"status"`
	CopyPasteCode  string     `json:"copyPasteCode,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	RawResponse    string     `json:"-"`
	PaidAt         *time.Time `json:"paidAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DeferredOrderRef builds the placeholder order reference used to park a
// webhook that raced the order-create call.
func DeferredOrderRef(transactionID string) string {
	return "unknown_" + transactionID
}
