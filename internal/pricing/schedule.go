package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyProtocolTiers  = errors.New("protocol tiers cannot be empty")
	ErrEmptyDiscountTiers  = errors.New("visit discount tiers cannot be empty")
	ErrInvalidTierRange    = errors.New("invalid tier range")
	ErrInvalidTierPrice    = errors.New("invalid tier price")
	ErrInvalidTierDiscount = errors.New("invalid tier discount")
	ErrInvalidUnitPrice    = errors.New("invalid unit price")
)

var (
	defaultOnsiteVisitPrice  = decimal.NewFromInt(10)
	defaultRemoteVisitPrice  = decimal.RequireFromString("2.50")
	defaultImplementationFee = decimal.NewFromInt(1000)
)

// Schedule is an immutable set of price tables and flat rates.
// The zero value is not usable; build one with NewSchedule or DefaultSchedule.
type Schedule struct {
	protocolTiers     []PriceTier
	discountTiers     []DiscountTier
	onsiteVisitPrice  decimal.Decimal
	remoteVisitPrice  decimal.Decimal
	implementationFee decimal.Decimal
}

// Rates holds the per-visit prices and the implementation fee of a Schedule.
type Rates struct {
	OnsiteVisitPrice  decimal.Decimal `json:"onsite_visit_price" yaml:"onsite_visit_price"`
	RemoteVisitPrice  decimal.Decimal `json:"remote_visit_price" yaml:"remote_visit_price"`
	ImplementationFee decimal.Decimal `json:"implementation_fee" yaml:"implementation_fee"`
}

// DefaultRates returns the standard visit prices and implementation fee.
func DefaultRates() Rates {
	return Rates{
		OnsiteVisitPrice:  defaultOnsiteVisitPrice,
		RemoteVisitPrice:  defaultRemoteVisitPrice,
		ImplementationFee: defaultImplementationFee,
	}
}

var defaultSchedule = mustSchedule(DefaultProtocolTiers(), DefaultVisitDiscountTiers(), DefaultRates())

// DefaultSchedule returns the standard pricing schedule.
func DefaultSchedule() Schedule {
	return defaultSchedule
}

// NewSchedule validates and copies the given tables into a Schedule.
//
// Tables must start at 1 and be contiguous. Only the last tier may be
// unbounded; a bounded last tier is accepted and counts above it resolve to
// the last tier's value.
func NewSchedule(protocolTiers []PriceTier, discountTiers []DiscountTier, rates Rates) (Schedule, error) {
	if err := validateProtocolTiers(protocolTiers); err != nil {
		return Schedule{}, err
	}
	if err := validateDiscountTiers(discountTiers); err != nil {
		return Schedule{}, err
	}
	if rates.OnsiteVisitPrice.IsNegative() || rates.RemoteVisitPrice.IsNegative() || rates.ImplementationFee.IsNegative() {
		return Schedule{}, ErrInvalidUnitPrice
	}

	return Schedule{
		protocolTiers:     clonePriceTiers(protocolTiers),
		discountTiers:     cloneDiscountTiers(discountTiers),
		onsiteVisitPrice:  rates.OnsiteVisitPrice,
		remoteVisitPrice:  rates.RemoteVisitPrice,
		implementationFee: rates.ImplementationFee,
	}, nil
}

func mustSchedule(protocolTiers []PriceTier, discountTiers []DiscountTier, rates Rates) Schedule {
	s, err := NewSchedule(protocolTiers, discountTiers, rates)
	if err != nil {
		panic(err)
	}
	return s
}

// ProtocolTiers returns a copy of the protocol fee table.
func (s Schedule) ProtocolTiers() []PriceTier {
	return clonePriceTiers(s.protocolTiers)
}

// DiscountTiers returns a copy of the visit discount table.
func (s Schedule) DiscountTiers() []DiscountTier {
	return cloneDiscountTiers(s.discountTiers)
}

// Rates returns the visit prices and implementation fee.
func (s Schedule) Rates() Rates {
	return Rates{
		OnsiteVisitPrice:  s.onsiteVisitPrice,
		RemoteVisitPrice:  s.remoteVisitPrice,
		ImplementationFee: s.implementationFee,
	}
}

func validateProtocolTiers(tiers []PriceTier) error {
	if len(tiers) == 0 {
		return ErrEmptyProtocolTiers
	}
	next := 1
	for i, tier := range tiers {
		if err := validateRange(i, len(tiers), next, tier.MinCount, tier.MaxCount); err != nil {
			return err
		}
		if tier.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: tier %d", ErrInvalidTierPrice, i)
		}
		if tier.MaxCount != nil {
			next = *tier.MaxCount + 1
		}
	}
	return nil
}

func validateDiscountTiers(tiers []DiscountTier) error {
	if len(tiers) == 0 {
		return ErrEmptyDiscountTiers
	}
	next := 1
	for i, tier := range tiers {
		if err := validateRange(i, len(tiers), next, tier.MinVisits, tier.MaxVisits); err != nil {
			return err
		}
		if tier.DiscountPercent.IsNegative() || tier.DiscountPercent.GreaterThan(hundred) {
			return fmt.Errorf("%w: tier %d", ErrInvalidTierDiscount, i)
		}
		if tier.MaxVisits != nil {
			next = *tier.MaxVisits + 1
		}
	}
	return nil
}

func validateRange(i, n, expectedMin, lo int, hi *int) error {
	if lo != expectedMin {
		return fmt.Errorf("%w: tier %d starts at %d, expected %d", ErrInvalidTierRange, i, lo, expectedMin)
	}
	if hi == nil {
		if i != n-1 {
			return fmt.Errorf("%w: only the last tier may be unbounded", ErrInvalidTierRange)
		}
		return nil
	}
	if *hi < lo {
		return fmt.Errorf("%w: tier %d ends before it starts", ErrInvalidTierRange, i)
	}
	return nil
}

func clonePriceTiers(in []PriceTier) []PriceTier {
	out := make([]PriceTier, len(in))
	for i, t := range in {
		out[i] = PriceTier{MinCount: t.MinCount, UnitPrice: t.UnitPrice}
		if t.MaxCount != nil {
			out[i].MaxCount = bound(*t.MaxCount)
		}
	}
	return out
}

func cloneDiscountTiers(in []DiscountTier) []DiscountTier {
	out := make([]DiscountTier, len(in))
	for i, t := range in {
		out[i] = DiscountTier{MinVisits: t.MinVisits, DiscountPercent: t.DiscountPercent}
		if t.MaxVisits != nil {
			out[i].MaxVisits = bound(*t.MaxVisits)
		}
	}
	return out
}
