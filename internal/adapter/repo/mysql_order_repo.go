package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
	"github.com/thiagobertoloto1-max/marmita-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// Upsert inserts the order or refreshes an existing row in place. The
// storefront retries order-create with the same client-minted id, so
// insert-or-update by primary key absorbs replays.
func (r *MySQLOrderRepo) Upsert(ctx context.Context, o *domain.Order) error {
	addrJSON, err := marshalAddress(o.DeliveryAddress)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO orders
  (id, code, status, items_json, customer_name, customer_email, customer_phone, customer_cpf,
   delivery_method, delivery_address, payment_method,
   subtotal_cents, delivery_fee_cents, discount_cents, total_cents,
   coupon_code, notes, estimated_delivery, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())
ON DUPLICATE KEY UPDATE
  -- status stays out of the update list: a replayed create must not wind
  -- a confirmed order back to pending_payment
  items_json=VALUES(items_json),
  customer_name=VALUES(customer_name), customer_email=VALUES(customer_email),
  customer_phone=VALUES(customer_phone), customer_cpf=VALUES(customer_cpf),
  subtotal_cents=VALUES(subtotal_cents), delivery_fee_cents=VALUES(delivery_fee_cents),
  discount_cents=VALUES(discount_cents), total_cents=VALUES(total_cents),
  payment_method=VALUES(payment_method), updated_at=NOW()
`, o.ID, o.Code, string(o.Status), nullable(o.ItemsJSON),
		o.Customer.Name, nullable(o.Customer.Email), o.Customer.Phone, nullable(o.Customer.CPF),
		string(o.DeliveryMethod), addrJSON, string(o.PaymentMethod),
		int64(o.SubtotalCents), int64(o.DeliveryFeeCents), int64(o.DiscountCents), int64(o.TotalCents),
		nullable(o.CouponCode), nullable(o.Notes), o.EstimatedDelivery)
	return err
}

const orderColumns = `
id, code, status, items_json, customer_name, customer_email, customer_phone, customer_cpf,
delivery_method, delivery_address, payment_method,
subtotal_cents, delivery_fee_cents, discount_cents, total_cents,
coupon_code, notes, estimated_delivery, created_at, updated_at`

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=?`, id)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE code=?`, code)
	return scanOrder(row)
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id string, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW() WHERE id=?`, string(to), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return usecase.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var o domain.Order
	var status, deliveryMethod, paymentMethod string
	var itemsJSON, email, cpf, addrJSON, couponCode, notes sql.NullString
	var subtotal, fee, discount, total int64
	var estimated sql.NullTime

	err := row.Scan(&o.ID, &o.Code, &status, &itemsJSON,
		&o.Customer.Name, &email, &o.Customer.Phone, &cpf,
		&deliveryMethod, &addrJSON, &paymentMethod,
		&subtotal, &fee, &discount, &total,
		&couponCode, &notes, &estimated, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, usecase.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.ItemsJSON = itemsJSON.String
	o.Status = domain.OrderStatus(status)
	o.DeliveryMethod = domain.DeliveryMethod(deliveryMethod)
	o.PaymentMethod = domain.PaymentMethod(paymentMethod)
	o.Customer.Email = email.String
	o.Customer.CPF = cpf.String
	o.SubtotalCents = domain.Cents(subtotal)
	o.DeliveryFeeCents = domain.Cents(fee)
	o.DiscountCents = domain.Cents(discount)
	o.TotalCents = domain.Cents(total)
	o.CouponCode = couponCode.String
	o.Notes = notes.String
	if estimated.Valid {
		t := estimated.Time
		o.EstimatedDelivery = &t
	}
	if addrJSON.Valid && addrJSON.String != "" {
		var addr domain.DeliveryAddress
		if err := json.Unmarshal([]byte(addrJSON.String), &addr); err != nil {
			return nil, fmt.Errorf("decode delivery address for order %s: %w", o.ID, err)
		}
		o.DeliveryAddress = &addr
	}
	return &o, nil
}

func marshalAddress(a *domain.DeliveryAddress) (any, error) {
	if a == nil {
		return nil, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode delivery address: %w", err)
	}
	return string(raw), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
