package anubis

import "strings"

// Status is the internal, lowercase payment-status vocabulary. The gateway
// reports uppercase free text; Normalize folds it into this enum.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusConfirmed Status = "confirmed"
	StatusApproved  Status = "approved"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
	StatusRefused   Status = "refused"
	StatusUnknown   Status = "unknown"
)

func Normalize(raw string) Status {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusPaid, StatusConfirmed, StatusApproved,
		StatusCompleted, StatusExpired, StatusCancelled, StatusRefused:
		return s
	case "":
		return StatusUnknown
	}
	// Keep the gateway's wording: new vocabulary should be visible in
	// stored rows, not collapsed to unknown.
	return s
}

// IsPaid is the canonical paid set. The gateway has been observed emitting
// all four spellings for a settled PIX charge.
func (s Status) IsPaid() bool {
	switch s {
	case StatusPaid, StatusConfirmed, StatusApproved, StatusCompleted:
		return true
	}
	return false
}

func (s Status) IsExpired() bool {
	return s == StatusExpired || s == StatusCancelled
}
