package anubis

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// WebhookEvent is the normalized postback payload. Whether ok to act on it
// depends only on TransactionID being present.
type WebhookEvent struct {
	TransactionID string
	Status        Status
	RawStatus     string
	PaidAt        string
	ExternalID    string
	Raw           json.RawMessage
}

// Postback field names vary between the gateway's docs and its live
// traffic: PascalCase at the top level, sometimes snake_case, sometimes
// nested under "data" or "transaction". Each alias list is ordered by how
// often the shape has been observed.
var (
	idAliases     = []string{"Id", "id", "txid", "transactionId", "transaction_id", "paymentId"}
	statusAliases = []string{"Status", "status"}
	paidAtAliases = []string{"PaidAt", "paidAt", "paid_at", "confirmedAt"}
	extIDAliases  = []string{"ExternalId", "externalId", "external_id"}
)

// ParseWebhook resolves the transaction id and status from a raw postback
// body, trying the known field aliases at the top level and inside the
// "data" and "transaction" envelopes. A payload that matches no alias
// still parses (with empty TransactionID) so the handler can acknowledge
// it; the unrecognized shape is logged rather than failed silently.
func ParseWebhook(raw []byte, log *slog.Logger) (*WebhookEvent, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("webhook: invalid JSON: %w", err)
	}

	scopes := []map[string]any{payload}
	for _, nested := range []string{"data", "transaction"} {
		if m, ok := payload[nested].(map[string]any); ok {
			scopes = append(scopes, m)
		}
	}

	ev := &WebhookEvent{
		TransactionID: firstString(scopes, idAliases),
		RawStatus:     firstString(scopes, statusAliases),
		PaidAt:        firstString(scopes, paidAtAliases),
		ExternalID:    firstString(scopes, extIDAliases),
		Raw:           json.RawMessage(raw),
	}
	ev.Status = Normalize(ev.RawStatus)

	if ev.TransactionID == "" && log != nil {
		log.Warn("webhook payload matched no known shape", "payload", string(raw))
	}
	return ev, nil
}

func firstString(scopes []map[string]any, aliases []string) string {
	for _, scope := range scopes {
		for _, key := range aliases {
			switch v := scope[key].(type) {
			case string:
				if v != "" {
					return v
				}
			case float64:
				return fmt.Sprintf("%.0f", v)
			}
		}
	}
	return ""
}
