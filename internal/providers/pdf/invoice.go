package pdf

import (
	"context"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
)

var (
	small      = props.Text{Size: 9}
	smallRight = props.Text{Size: 9, Align: align.Right}
	smallBold  = props.Text{Size: 9, Style: fontstyle.Bold}
	header     = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

type PDFProvider struct{}

func New() *PDFProvider {
	return &PDFProvider{}
}

// GenerateInvoice lays out doc on A4 pages: issuer and client blocks, the
// itemized charges, totals, then payment instructions and notes.
func (p *PDFProvider) GenerateInvoice(ctx context.Context, doc invoicedomain.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inv := doc.Invoice
	company := doc.Company

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, company.Name, props.Text{Size: 18, Style: fontstyle.Bold}),
		text.NewCol(4, "Invoice "+inv.InvoiceNumber, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right, Top: 2}),
	)

	issued := "Issue Date: " + format.FormatDate(inv.Date)
	if inv.Period != "" {
		issued += " | " + inv.Period
	}
	m.AddRow(8, text.NewCol(12, issued, small))

	m.AddRow(14,
		text.NewCol(12, "Amount Due "+format.FormatMoney(inv.Total), props.Text{Size: 14, Style: fontstyle.Bold, Top: 4}),
	)

	m.AddRow(30,
		col.New(6).Add(stack("From", company.Trade, company.LegalName, company.Address, company.City)...),
		col.New(6).Add(stack("Bill To", billTo(doc)...)...),
	)

	m.AddRow(8,
		text.NewCol(6, "Description", smallBold),
		text.NewCol(2, "Qty", header),
		text.NewCol(2, "Unit Price", header),
		text.NewCol(2, "Amount", header),
	)
	m.AddRow(2, line.NewCol(12))

	for _, l := range doc.Lines() {
		m.AddRow(8,
			text.NewCol(6, l.Description, small),
			text.NewCol(2, format.FormatQuantity(l.Quantity), smallRight),
			text.NewCol(2, format.FormatMoney(l.UnitPrice), smallRight),
			text.NewCol(2, format.FormatMoney(l.Total), smallRight),
		)
	}
	m.AddRow(2, line.NewCol(12))

	m.AddRow(7,
		col.New(7),
		text.NewCol(2, "Subtotal", small),
		text.NewCol(3, format.FormatMoney(inv.Subtotal), smallRight),
	)
	if inv.DiscountAmount.IsPositive() {
		m.AddRow(7,
			col.New(7),
			text.NewCol(2, "Discount ("+inv.VisitDiscountPercent.String()+"%)", small),
			text.NewCol(3, "-"+format.FormatMoney(inv.DiscountAmount), smallRight),
		)
	}
	m.AddRow(8,
		col.New(7),
		text.NewCol(2, "Total Due", smallBold),
		text.NewCol(3, format.FormatMoney(inv.Total), header),
	)

	bank := company.Bank
	m.AddRow(36, col.New(12).Add(stack("Payment Details",
		"Bank: "+bank.Name,
		"ABA: "+bank.ABA,
		"SWIFT: "+bank.SWIFT,
		"Beneficiary: "+bank.Beneficiary,
		"Account: "+bank.Account,
		"Address: "+bank.Address,
	)...))
	for _, note := range bank.Notes {
		m.AddRow(5, text.NewCol(12, "* "+note, props.Text{Size: 8, Style: fontstyle.Italic}))
	}

	if notes := strings.TrimSpace(inv.Notes); notes != "" {
		m.AddRow(8, text.NewCol(12, "Notes", props.Text{Size: 9, Style: fontstyle.Bold, Top: 3}))
		m.AddRow(12, text.NewCol(12, notes, small))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

func billTo(doc invoicedomain.Document) []string {
	c := doc.Client
	lines := []string{c.Name}
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if c.Phone != "" {
		lines = append(lines, "Tel: "+c.Phone)
	}
	if c.Email != "" {
		lines = append(lines, c.Email)
	}
	if c.TaxID != "" {
		lines = append(lines, "Tax ID: "+c.TaxID)
	}
	return lines
}

// stack renders a bold title followed by one text line per value, 4mm apart.
func stack(title string, values ...string) []core.Component {
	components := []core.Component{text.New(title, smallBold)}
	top := 4.0
	for _, v := range values {
		if v == "" {
			continue
		}
		components = append(components, text.New(v, props.Text{Size: 9, Top: top}))
		top += 4
	}
	return components
}
