package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type ChargeItem struct {
	Title       string
	UnitCents   domain.Cents
	Quantity    int
	Tangible    *bool
	ExternalRef string
}

type CreateChargeInput struct {
	OrderID     string
	AmountCents domain.Cents
	Customer    domain.Customer
	Items       []ChargeItem
	PostbackURL string
}

type CreateChargeOutput struct {
	TransactionID  string     `json:"transactionId"`
	Status         string     `json:"status"`
	CopyPasteCode  string     `json:"copyPasteCode,omitempty"`
	ExpirationDate *time.Time `json:"expirationDate,omitempty"`
	PostbackURL    string     `json:"postbackUrl,omitempty"`
	Reused         bool       `json:"-"`
}

type CreateCharge struct {
	charges ChargeRepo
	gateway Gateway
	lock    ChargeLock
	log     *slog.Logger
	now     func() time.Time
}

func NewCreateCharge(charges ChargeRepo, gateway Gateway, lock ChargeLock, log *slog.Logger) *CreateCharge {
	return &CreateCharge{charges: charges, gateway: gateway, lock: lock, log: log, now: time.Now}
}

// Execute creates a PIX charge for an order, at most once: a live
// (non-expired) charge already stored for the order is returned as-is
// instead of creating a duplicate with the gateway. Gateway failures
// propagate to the caller carrying the gateway's own status code; the
// caller owns retries.
func (uc *CreateCharge) Execute(ctx context.Context, in CreateChargeInput) (*CreateChargeOutput, error) {
	if err := uc.validate(in); err != nil {
		return nil, err
	}

	if out := uc.existing(ctx, in.OrderID); out != nil {
		return out, nil
	}

	if uc.lock != nil {
		locked, err := uc.lock.TryLock(ctx, in.OrderID)
		if err != nil {
			uc.log.Warn("charge lock unavailable, relying on upsert guard", "order_id", in.OrderID, "error", err)
		} else if !locked {
			// A concurrent create beat us to the lock; hand back whatever
			// it stored, or fall through and let the upsert settle it.
			if out := uc.existing(ctx, in.OrderID); out != nil {
				return out, nil
			}
		} else {
			defer func() { _ = uc.lock.Unlock(ctx, in.OrderID) }()
		}
	}

	req := anubis.CreateRequest{
		OrderID:     in.OrderID,
		AmountCents: in.AmountCents,
		PostbackURL: in.PostbackURL,
		Customer: anubis.Customer{
			Name:     in.Customer.Name,
			Email:    in.Customer.Email,
			Phone:    in.Customer.Phone,
			Document: anubis.Document{Type: "cpf", Number: in.Customer.CPF},
		},
	}
	for _, it := range in.Items {
		tangible := true
		if it.Tangible != nil {
			tangible = *it.Tangible
		}
		ref := it.ExternalRef
		if ref == "" {
			ref = in.OrderID
		}
		req.Items = append(req.Items, anubis.Item{
			Title:       it.Title,
			UnitCents:   it.UnitCents,
			Quantity:    it.Quantity,
			Tangible:    tangible,
			ExternalRef: ref,
		})
	}

	tx, err := uc.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return nil, err
	}

	// Store the gateway's own status wording; reads normalize it. The
	// reuse path below then echoes the same vocabulary the first create
	// answered with.
	charge := &domain.Charge{
		TransactionID:  tx.ID,
		OrderID:        in.OrderID,
		Provider:       "anubispay",
		Status:         tx.RawStatus,
		CopyPasteCode:  tx.CopyPasteCode,
		ExpirationDate: tx.ExpirationDate,
		RawResponse:    string(tx.Raw),
		CreatedAt:      uc.now(),
		UpdatedAt:      uc.now(),
	}
	if err := uc.charges.UpsertByOrderID(ctx, charge); err != nil {
		return nil, fmt.Errorf("persist charge for order %s: %w", in.OrderID, err)
	}

	return &CreateChargeOutput{
		TransactionID:  tx.ID,
		Status:         tx.RawStatus,
		CopyPasteCode:  tx.CopyPasteCode,
		ExpirationDate: tx.ExpirationDate,
		PostbackURL:    in.PostbackURL,
	}, nil
}

func (uc *CreateCharge) validate(in CreateChargeInput) error {
	if in.OrderID == "" || in.AmountCents <= 0 || in.Customer.Name == "" ||
		in.Customer.Phone == "" || len(in.Items) == 0 {
		return ErrMissingFields
	}
	if in.Customer.CPF == "" {
		return ErrCPFRequired
	}
	return nil
}

// existing returns the stored charge for the order when it is still
// usable. An expired charge does not count: the client is allowed to mint
// a replacement.
func (uc *CreateCharge) existing(ctx context.Context, orderID string) *CreateChargeOutput {
	ch, err := uc.charges.GetByOrderID(ctx, orderID)
	if err != nil || ch == nil {
		return nil
	}
	if anubis.Normalize(ch.Status).IsExpired() {
		return nil
	}
	uc.log.Info("reusing existing pix charge", "order_id", orderID, "transaction_id", ch.TransactionID)
	return &CreateChargeOutput{
		TransactionID:  ch.TransactionID,
		Status:         ch.Status,
		CopyPasteCode:  ch.CopyPasteCode,
		ExpirationDate: ch.ExpirationDate,
		Reused:         true,
	}
}
