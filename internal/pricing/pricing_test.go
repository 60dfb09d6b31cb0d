package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thiagobertoloto1-max/marmita-api/internal/catalog"
	domain "github.com/thiagobertoloto1-max/marmita-api/internal/entity"
)

func TestUnitPrice(t *testing.T) {
	p := &catalog.Product{ID: "marmita-1", BaseCents: 1990}
	size := catalog.Size{ID: "g", DeltaCents: 500}
	choices := []catalog.Choice{
		{ID: "ovo", DeltaCents: 300},
		{ID: "bacon", DeltaCents: 450},
	}

	assert.Equal(t, domain.Cents(1990), UnitPrice(p, catalog.Size{}, nil))
	assert.Equal(t, domain.Cents(2490), UnitPrice(p, size, nil))
	assert.Equal(t, domain.Cents(3240), UnitPrice(p, size, choices))
}

func TestUnitPrice_PromoPriceWins(t *testing.T) {
	p := &catalog.Product{ID: "marmita-1", BaseCents: 1990, PromoCents: 1490, IsPromo: true}
	assert.Equal(t, domain.Cents(1490), UnitPrice(p, catalog.Size{}, nil))

	// Promo flag without a promo price falls back to the base price.
	p2 := &catalog.Product{ID: "marmita-2", BaseCents: 1990, IsPromo: true}
	assert.Equal(t, domain.Cents(1990), UnitPrice(p2, catalog.Size{}, nil))
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name   string
		amount domain.Cents
		rate   float64
		want   domain.Cents
	}{
		{"zero rate is exact no-op", 1990, 0, 1990},
		{"ten percent", 1000, 0.10, 900},
		{"half-up rounding", 1995, 0.10, 1796}, // 1795.5 rounds up
		{"rounds down below half", 1991, 0.10, 1792},
		{"fifty percent", 4990, 0.50, 2495},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyDiscount(tt.amount, tt.rate))
		})
	}
}

func TestApplyDiscount_NoDriftOnRepeatedAdds(t *testing.T) {
	// Summing discounted cents stays exact integer arithmetic.
	var sum domain.Cents
	for i := 0; i < 1000; i++ {
		sum += ApplyDiscount(1990, 0)
	}
	assert.Equal(t, domain.Cents(1990000), sum)
}
