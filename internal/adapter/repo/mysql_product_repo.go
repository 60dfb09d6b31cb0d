package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

// Sizes and addon groups live as JSON columns: the catalog is read-only
// to this service, relational decomposition buys nothing here.
func (r *MySQLProductRepo) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, category, base_cents, promo_cents, is_promo, sizes_json, addon_groups_json
FROM products WHERE id=?`, id)

	var p catalog.Product
	var base, promo int64
	var sizesJSON, groupsJSON sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.Category, &base, &promo, &p.IsPromo, &sizesJSON, &groupsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	p.BaseCents = domain.Cents(base)
	p.PromoCents = domain.Cents(promo)
	if sizesJSON.Valid && sizesJSON.String != "" {
		if err := json.Unmarshal([]byte(sizesJSON.String), &p.Sizes); err != nil {
			return nil, fmt.Errorf("decode sizes for product %s: %w", id, err)
		}
	}
	if groupsJSON.Valid && groupsJSON.String != "" {
		if err := json.Unmarshal([]byte(groupsJSON.String), &p.AddonGroups); err != nil {
			return nil, fmt.Errorf("decode addon groups for product %s: %w", id, err)
		}
	}
	return &p, nil
}

var _ catalog.Repository = (*MySQLProductRepo)(nil)
