package domain

import "fmt"

// Cents is a money amount in integer minor currency units (centavos).
// All internal arithmetic happens on this type; conversion to display
// currency is a boundary concern.
type Cents int64

// FromReais converts a decimal currency amount (e.g. a JSON number in
// reais) to cents, rounding half-up at the cent boundary.
func FromReais(v float64) Cents {
	if v >= 0 {
		return Cents(v*100 + 0.5)
	}
	return Cents(v*100 - 0.5)
}

// Reais returns the decimal currency value.
func (c Cents) Reais() float64 {
	return float64(c) / 100
}

// BRL formats the amount the Brazilian way: "R$ 49,90".
func (c Cents) BRL() string {
	neg := ""
	v := c
	if v < 0 {
		neg = "-"
		v = -v
	}
	return fmt.Sprintf("%sR$ %d,%02d", neg, v/100, v%100)
}
