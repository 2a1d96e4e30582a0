package pricing

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineItem is a free-form billable entry added to an invoice without tier logic.
type LineItem struct {
	Quantity  decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" yaml:"unit_price"`
}

// Total returns Quantity × UnitPrice without rounding.
func (l LineItem) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Input is everything needed to price one invoice.
type Input struct {
	ProtocolCount            int        `json:"protocol_count" yaml:"protocol_count"`
	OnsiteVisits             int        `json:"onsite_visits" yaml:"onsite_visits"`
	RemoteVisits             int        `json:"remote_visits" yaml:"remote_visits"`
	IncludeImplementationFee bool       `json:"include_implementation_fee" yaml:"include_implementation_fee"`
	LineItems                []LineItem `json:"line_items" yaml:"line_items"`
}

// Result carries every intermediate and final figure of a calculation so
// callers can render an itemized breakdown without recomputing anything.
// No field is rounded.
type Result struct {
	ProtocolUnitPrice    decimal.Decimal `json:"protocol_unit_price" yaml:"protocol_unit_price"`
	ProtocolTotal        decimal.Decimal `json:"protocol_total" yaml:"protocol_total"`
	OnsiteUnitPrice      decimal.Decimal `json:"onsite_unit_price" yaml:"onsite_unit_price"`
	OnsiteTotal          decimal.Decimal `json:"onsite_total" yaml:"onsite_total"`
	RemoteUnitPrice      decimal.Decimal `json:"remote_unit_price" yaml:"remote_unit_price"`
	RemoteTotal          decimal.Decimal `json:"remote_total" yaml:"remote_total"`
	VisitSubtotal        decimal.Decimal `json:"visit_subtotal" yaml:"visit_subtotal"`
	TotalVisits          int             `json:"total_visits" yaml:"total_visits"`
	VisitDiscountPercent decimal.Decimal `json:"visit_discount_percent" yaml:"visit_discount_percent"`
	VisitDiscountAmount  decimal.Decimal `json:"visit_discount_amount" yaml:"visit_discount_amount"`
	VisitAfterDiscount   decimal.Decimal `json:"visit_after_discount" yaml:"visit_after_discount"`
	ImplementationFee    decimal.Decimal `json:"implementation_fee" yaml:"implementation_fee"`
	LineItemsTotal       decimal.Decimal `json:"line_items_total" yaml:"line_items_total"`
	Subtotal             decimal.Decimal `json:"subtotal" yaml:"subtotal"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" yaml:"discount_amount"`
	Total                decimal.Decimal `json:"total" yaml:"total"`
}

// UnitPriceForProtocolCount returns the flat protocol fee for count using the
// default schedule.
func UnitPriceForProtocolCount(count int) decimal.Decimal {
	return defaultSchedule.UnitPriceForProtocolCount(count)
}

// DiscountPercentForVisitVolume returns the visit discount percent for
// totalVisits using the default schedule.
func DiscountPercentForVisitVolume(totalVisits int) decimal.Decimal {
	return defaultSchedule.DiscountPercentForVisitVolume(totalVisits)
}

// ComputeInvoiceTotals prices in with the default schedule.
func ComputeInvoiceTotals(in Input) Result {
	return defaultSchedule.ComputeInvoiceTotals(in)
}

// UnitPriceForProtocolCount returns the protocol fee of the first tier whose
// range contains count, or zero when count is not positive. When no tier
// matches, the last tier's price is returned so an out-of-range volume never
// produces a zero fee.
func (s Schedule) UnitPriceForProtocolCount(count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	for _, tier := range s.protocolTiers {
		if tier.contains(count) {
			return tier.UnitPrice
		}
	}
	if len(s.protocolTiers) == 0 {
		return decimal.Zero
	}
	return s.protocolTiers[len(s.protocolTiers)-1].UnitPrice
}

// DiscountPercentForVisitVolume returns the discount percent of the first
// tier whose range contains totalVisits, or zero when totalVisits is not
// positive. When no tier matches, the last tier's percent is returned.
func (s Schedule) DiscountPercentForVisitVolume(totalVisits int) decimal.Decimal {
	if totalVisits <= 0 {
		return decimal.Zero
	}
	for _, tier := range s.discountTiers {
		if tier.contains(totalVisits) {
			return tier.DiscountPercent
		}
	}
	if len(s.discountTiers) == 0 {
		return decimal.Zero
	}
	return s.discountTiers[len(s.discountTiers)-1].DiscountPercent
}

// ComputeInvoiceTotals prices one invoice.
//
// The protocol fee is a single flat charge selected by bracket, never
// multiplied by the count. The volume discount applies to the visit fees
// only. Subtotal is the gross amount before the discount.
func (s Schedule) ComputeInvoiceTotals(in Input) Result {
	protocolUnitPrice := s.UnitPriceForProtocolCount(in.ProtocolCount)
	protocolTotal := protocolUnitPrice

	onsiteTotal := decimal.NewFromInt(int64(in.OnsiteVisits)).Mul(s.onsiteVisitPrice)
	remoteTotal := decimal.NewFromInt(int64(in.RemoteVisits)).Mul(s.remoteVisitPrice)
	visitSubtotal := onsiteTotal.Add(remoteTotal)

	totalVisits := in.OnsiteVisits + in.RemoteVisits
	discountPercent := s.DiscountPercentForVisitVolume(totalVisits)
	visitDiscountAmount := visitSubtotal.Mul(discountPercent).Div(hundred)
	visitAfterDiscount := visitSubtotal.Sub(visitDiscountAmount)

	implementationFee := decimal.Zero
	if in.IncludeImplementationFee {
		implementationFee = s.implementationFee
	}

	lineItemsTotal := decimal.Zero
	for _, item := range in.LineItems {
		lineItemsTotal = lineItemsTotal.Add(item.Total())
	}

	subtotal := protocolTotal.Add(visitSubtotal).Add(implementationFee).Add(lineItemsTotal)
	discountAmount := visitDiscountAmount
	total := subtotal.Sub(discountAmount)

	return Result{
		ProtocolUnitPrice:    protocolUnitPrice,
		ProtocolTotal:        protocolTotal,
		OnsiteUnitPrice:      s.onsiteVisitPrice,
		OnsiteTotal:          onsiteTotal,
		RemoteUnitPrice:      s.remoteVisitPrice,
		RemoteTotal:          remoteTotal,
		VisitSubtotal:        visitSubtotal,
		TotalVisits:          totalVisits,
		VisitDiscountPercent: discountPercent,
		VisitDiscountAmount:  visitDiscountAmount,
		VisitAfterDiscount:   visitAfterDiscount,
		ImplementationFee:    implementationFee,
		LineItemsTotal:       lineItemsTotal,
		Subtotal:             subtotal,
		DiscountAmount:       discountAmount,
		Total:                total,
	}
}
