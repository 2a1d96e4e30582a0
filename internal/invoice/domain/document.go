package domain

import "github.com/shopspring/decimal"

// Line is one printable row of an invoice.
type Line struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Lines expands the tiered charges and the free-form items into the rows
// shown on the screen view and the PDF. Charges with a zero quantity are
// omitted.
func (d Document) Lines() []Line {
	inv := d.Invoice
	lines := make([]Line, 0, len(d.Items)+4)

	if inv.ProtocolCount > 0 {
		lines = append(lines, Line{
			Description: "Protocol Base Fee",
			Quantity:    decimal.NewFromInt(int64(inv.ProtocolCount)),
			UnitPrice:   inv.ProtocolUnitPrice,
			Total:       inv.ProtocolTotal,
		})
	}
	if inv.OnsiteVisits > 0 {
		lines = append(lines, Line{
			Description: "On-Site Visits",
			Quantity:    decimal.NewFromInt(int64(inv.OnsiteVisits)),
			UnitPrice:   inv.OnsiteUnitPrice,
			Total:       inv.OnsiteTotal,
		})
	}
	if inv.RemoteVisits > 0 {
		lines = append(lines, Line{
			Description: "Remote Visits",
			Quantity:    decimal.NewFromInt(int64(inv.RemoteVisits)),
			UnitPrice:   inv.RemoteUnitPrice,
			Total:       inv.RemoteTotal,
		})
	}
	if inv.ImplementationFee.IsPositive() {
		lines = append(lines, Line{
			Description: "Implementation Fee",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   inv.ImplementationFee,
			Total:       inv.ImplementationFee,
		})
	}
	for _, item := range d.Items {
		lines = append(lines, Line{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	return lines
}
