// Package catalog holds the read-only product catalog: products with size
// variants and addon groups. The core never mutates catalog data.
package catalog

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

var ErrProductNotFound = errors.New("product not found")

type Choice struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DeltaCents domain.Cents `json:"deltaCents"`
}

// AddonGroup is an ordered group of selectable choices. Single-selection
// groups behave like radio buttons; multi groups allow MinSelect..MaxSelect
// picks. MaxSelect == 0 means unbounded.
type AddonGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Required  bool     `json:"required"`
	Multi     bool     `json:"multi"`
	MinSelect int      `json:"minSelect"`
	MaxSelect int      `json:"maxSelect"`
	Choices   []Choice `json:"choices"`
}

type Size struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	DeltaCents domain.Cents `json:"deltaCents"`
}

type Product struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	BaseCents   domain.Cents `json:"baseCents"`
	PromoCents  domain.Cents `json:"promoCents,omitempty"`
	IsPromo     bool         `json:"isPromo"`
	Sizes       []Size       `json:"sizes"`
	AddonGroups []AddonGroup `json:"addonGroups"`
}

// Size returns the size variant with the given id.
func (p *Product) Size(id string) (Size, bool) {
	for _, s := range p.Sizes {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}

// Choice resolves a choice id across all addon groups.
func (p *Product) Choice(id string) (Choice, bool) {
	for _, g := range p.AddonGroups {
		for _, c := range g.Choices {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Choice{}, false
}

// ValidateSelection checks the chosen addon ids against the product's group
// constraints: required groups need at least one pick (or MinSelect),
// single-selection groups allow at most one, and multi groups respect
// MinSelect/MaxSelect.
func (p *Product) ValidateSelection(choiceIDs []string) error {
	picked := map[string]int{}
	for _, id := range choiceIDs {
		found := false
		for _, g := range p.AddonGroups {
			for _, c := range g.Choices {
				if c.ID == id {
					picked[g.ID]++
					found = true
				}
			}
		}
		if !found {
			return fmt.Errorf("choice %q does not belong to product %q", id, p.ID)
		}
	}
	for _, g := range p.AddonGroups {
		n := picked[g.ID]
		min := g.MinSelect
		if g.Required && min == 0 {
			min = 1
		}
		if n < min {
			return fmt.Errorf("group %q requires at least %d selection(s)", g.Name, min)
		}
		if !g.Multi && n > 1 {
			return fmt.Errorf("group %q allows a single selection", g.Name)
		}
		if g.Multi && g.MaxSelect > 0 && n > g.MaxSelect {
			return fmt.Errorf("group %q allows at most %d selection(s)", g.Name, g.MaxSelect)
		}
	}
	return nil
}

// Repository is the read port to the catalog store.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}
