package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/thiagobertoloto1-max/marmita-api/internal/adapter/anubis"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type MySQLChargeRepo struct{ db *sql.DB }

func NewMySQLChargeRepo(db *sql.DB) *MySQLChargeRepo { return &MySQLChargeRepo{db: db} }

// UpsertByOrderID is keyed on the order id (unique index), not the
// transaction id: whichever of the create call and the first webhook lands
// first claims the row, the other updates it. This is the intentional
// absorber for out-of-order delivery.
func (r *MySQLChargeRepo) UpsertByOrderID(ctx context.Context, c *domain.Charge) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pix_charges
  (order_id, transaction_id, provider, status, copy_paste_code, expiration_date, raw_response, paid_at, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,NOW(),NOW())
ON DUPLICATE KEY UPDATE
  transaction_id=VALUES(transaction_id), status=VALUES(status),
  copy_paste_code=VALUES(copy_paste_code), expiration_date=VALUES(expiration_date),
  raw_response=VALUES(raw_response), updated_at=NOW()
`, c.OrderID, c.TransactionID, c.Provider, c.Status,
		nullable(c.CopyPasteCode), c.ExpirationDate, nullable(c.RawResponse), c.PaidAt)
	if err != nil {
		return err
	}

	// A webhook that raced the create call parked its payload under a
	// synthetic unknown_<txid> order ref. Once a real row claims the
	// transaction id, the parked row is a duplicate; drop it so lookups
	// by transaction id resolve to the real charge.
	if !strings.HasPrefix(c.OrderID, "unknown_") && c.TransactionID != "" {
		_, err = r.db.ExecContext(ctx, `
DELETE FROM pix_charges
WHERE transaction_id=? AND order_id LIKE 'unknown\_%' AND order_id<>?`,
			c.TransactionID, c.OrderID)
	}
	return err
}

const chargeColumns = `
order_id, transaction_id, provider, status, copy_paste_code, expiration_date, raw_response, paid_at, created_at, updated_at`

func (r *MySQLChargeRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Charge, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+chargeColumns+` FROM pix_charges WHERE order_id=?`, orderID)
	return scanCharge(row)
}

// GetByTransactionID prefers a real charge row over one parked under an
// unknown_ order ref, in case both briefly coexist for the same
// transaction id.
func (r *MySQLChargeRepo) GetByTransactionID(ctx context.Context, txID string) (*domain.Charge, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+chargeColumns+` FROM pix_charges WHERE transaction_id=?
ORDER BY (order_id LIKE 'unknown\_%') ASC LIMIT 1`, txID)
	return scanCharge(row)
}

// ConfirmPayment applies the paid transition to the charge and the order
// inside one transaction, so the pair can never be observed half-updated.
// The order update is a compare-and-set from pending_payment: replayed
// webhooks and polls find zero affected rows and report changed=false.
func (r *MySQLChargeRepo) ConfirmPayment(ctx context.Context, orderID, txID string, paidAt time.Time, raw []byte) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin confirm tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE pix_charges
SET status='paid', paid_at=COALESCE(paid_at, ?), raw_response=?, updated_at=NOW()
WHERE transaction_id=?`, paidAt, string(raw), txID); err != nil {
		return false, err
	}

	res, err := tx.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW()
WHERE id=? AND status=?`,
		string(domain.StatusPaymentConfirmed), orderID, string(domain.StatusPendingPayment))
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit confirm tx: %w", err)
	}
	return rows > 0, nil
}

// CancelForExpiry expires the charge and cancels the order, but only while
// the order is still waiting for payment.
func (r *MySQLChargeRepo) CancelForExpiry(ctx context.Context, orderID, txID string, raw []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin expiry tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
UPDATE pix_charges SET status='expired', raw_response=?, updated_at=NOW()
WHERE transaction_id=?`, string(raw), txID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW()
WHERE id=? AND status=?`,
		string(domain.StatusCancelled), orderID, string(domain.StatusPendingPayment)); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *MySQLChargeRepo) UpdateStatus(ctx context.Context, txID string, status anubis.Status, raw []byte) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE pix_charges SET status=?, raw_response=?, updated_at=NOW()
WHERE transaction_id=?`, string(status), string(raw), txID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrChargeNotFound
	}
	return nil
}

func scanCharge(row *sql.Row) (*domain.Charge, error) {
	var c domain.Charge
	var copyPaste, raw sql.NullString
	var expiration, paidAt sql.NullTime

	err := row.Scan(&c.OrderID, &c.TransactionID, &c.Provider, &c.Status,
		&copyPaste, &expiration, &raw, &paidAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrChargeNotFound
	}
	if err != nil {
		return nil, err
	}

	c.CopyPasteCode = copyPaste.String
	c.RawResponse = raw.String
	if expiration.Valid {
		t := expiration.Time
		c.ExpirationDate = &t
	}
	if paidAt.Valid {
		t := paidAt.Time
		c.PaidAt = &t
	}
	return &c, nil
}

var _ usecase.ChargeRepo = (*MySQLChargeRepo)(nil)
