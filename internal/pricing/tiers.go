// Package pricing computes invoice totals from tiered protocol prices,
// tiered visit-volume discounts, flat fees, and free-form line items.
//
// Every function in this package is pure. A Schedule is never mutated after
// construction, so a single value can be shared across goroutines.
package pricing

import (
	"github.com/shopspring/decimal"
)

// PriceTier maps an inclusive protocol count range to a flat protocol fee.
// A nil MaxCount means the range is unbounded.
type PriceTier struct {
	MinCount  int             `json:"min" yaml:"min"`
	MaxCount  *int            `json:"max,omitempty" yaml:"max,omitempty"`
	UnitPrice decimal.Decimal `json:"price" yaml:"price"`
}

// DiscountTier maps an inclusive total visit range to a discount percent.
// A nil MaxVisits means the range is unbounded.
type DiscountTier struct {
	MinVisits       int             `json:"min" yaml:"min"`
	MaxVisits       *int            `json:"max,omitempty" yaml:"max,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount" yaml:"discount"`
}

func (t PriceTier) contains(count int) bool {
	return inRange(count, t.MinCount, t.MaxCount)
}

func (t DiscountTier) contains(visits int) bool {
	return inRange(visits, t.MinVisits, t.MaxVisits)
}

func inRange(v, lo int, hi *int) bool {
	if v < lo {
		return false
	}
	return hi == nil || v <= *hi
}

func bound(v int) *int { return &v }

// DefaultProtocolTiers returns the standard protocol fee brackets.
func DefaultProtocolTiers() []PriceTier {
	return []PriceTier{
		{MinCount: 1, MaxCount: bound(5), UnitPrice: decimal.NewFromInt(150)},
		{MinCount: 6, MaxCount: bound(10), UnitPrice: decimal.NewFromInt(200)},
		{MinCount: 11, MaxCount: bound(20), UnitPrice: decimal.NewFromInt(250)},
		{MinCount: 21, MaxCount: bound(30), UnitPrice: decimal.NewFromInt(300)},
		{MinCount: 31, MaxCount: bound(40), UnitPrice: decimal.NewFromInt(350)},
		{MinCount: 41, MaxCount: bound(50), UnitPrice: decimal.NewFromInt(400)},
		{MinCount: 51, MaxCount: nil, UnitPrice: decimal.NewFromInt(600)},
	}
}

// DefaultVisitDiscountTiers returns the standard visit volume discount brackets.
func DefaultVisitDiscountTiers() []DiscountTier {
	return []DiscountTier{
		{MinVisits: 1, MaxVisits: bound(50), DiscountPercent: decimal.Zero},
		{MinVisits: 51, MaxVisits: bound(100), DiscountPercent: decimal.NewFromInt(10)},
		{MinVisits: 101, MaxVisits: bound(150), DiscountPercent: decimal.NewFromInt(20)},
		{MinVisits: 151, MaxVisits: bound(200), DiscountPercent: decimal.NewFromInt(30)},
		{MinVisits: 201, MaxVisits: bound(250), DiscountPercent: decimal.NewFromInt(40)},
		{MinVisits: 251, MaxVisits: bound(400), DiscountPercent: decimal.NewFromInt(45)},
		{MinVisits: 401, MaxVisits: nil, DiscountPercent: decimal.NewFromInt(50)},
	}
}
