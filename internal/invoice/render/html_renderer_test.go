package render

import (
	"testing"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicer/internal/client/domain"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() domain.Document {
	return domain.Document{
		Company: config.DefaultCompanyConfig(),
		InvoiceDetail: domain.InvoiceDetail{
			Invoice: domain.Invoice{
				InvoiceNumber:        "INV-0007",
				Date:                 "2025-03-07",
				Period:               "March 2025",
				ProtocolCount:        3,
				ProtocolUnitPrice:    decimal.NewFromInt(1500),
				ProtocolTotal:        decimal.NewFromInt(1500),
				OnsiteVisits:         20,
				OnsiteUnitPrice:      decimal.NewFromInt(10),
				OnsiteTotal:          decimal.NewFromInt(200),
				VisitDiscountPercent: decimal.NewFromInt(5),
				VisitDiscountAmount:  decimal.NewFromInt(10),
				ImplementationFee:    decimal.NewFromInt(1000),
				Subtotal:             decimal.NewFromInt(2700),
				DiscountAmount:       decimal.NewFromInt(10),
				Total:                decimal.NewFromInt(2690),
				Notes:                "Thanks <team>",
			},
			Client: clientdomain.Client{Name: "Acme & Sons", Phone: "555-0100", TaxID: "RUT-1"},
			Items: []domain.InvoiceItem{
				{Description: "Travel", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.5"), Total: decimal.NewFromInt(25)},
			},
		},
	}
}

func TestRenderHTML(t *testing.T) {
	out, err := NewRenderer().RenderHTML(sampleDocument())
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Invoice INV-0007")
	assert.Contains(t, html, "Issue Date: Mar 7, 2025 | March 2025")
	assert.Contains(t, html, "Protocol Base Fee")
	assert.Contains(t, html, "On-Site Visits")
	assert.NotContains(t, html, "Remote Visits")
	assert.Contains(t, html, "Implementation Fee")
	assert.Contains(t, html, "Travel")
	assert.Contains(t, html, "USD 2,690.00")
	assert.Contains(t, html, "-USD 10.00")
	assert.Contains(t, html, "Tel: 555-0100")
	assert.Contains(t, html, "Acme &amp; Sons")
	assert.Contains(t, html, "Thanks &lt;team&gt;")
	assert.Contains(t, html, "* Include invoice number as reference in bank transfer")
}

func TestRenderHTMLWithoutDiscount(t *testing.T) {
	doc := sampleDocument()
	doc.Invoice.DiscountAmount = decimal.Zero
	doc.Invoice.Notes = ""

	out, err := NewRenderer().RenderHTML(doc)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "on visits")
	assert.NotContains(t, string(out), `class="notes"`)
}
