package render

import (
	"bytes"
	"html/template"

	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
)

// Renderer produces the printable screen view of an invoice.
type Renderer interface {
	RenderHTML(doc domain.Document) ([]byte, error)
}

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Invoice.InvoiceNumber}}</title>
  <style>
    * { box-sizing: border-box; }
    body {
      margin: 0;
      padding: 40px;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      color: #1a1f36;
      background: #f7f9fc;
    }
    .invoice-card {
      background: #ffffff;
      max-width: 760px;
      margin: 0 auto;
      padding: 60px;
      box-shadow: 0 2px 5px rgba(0,0,0,0.04);
      border-radius: 4px;
    }
    .header { display: flex; justify-content: space-between; margin-bottom: 40px; }
    .header h1 { margin: 0; font-size: 24px; font-weight: 700; }
    .header-right { text-align: right; }
    .meta-grid { display: flex; justify-content: space-between; margin-bottom: 40px; gap: 24px; }
    .col { flex: 1; }
    .label {
      font-size: 11px;
      text-transform: uppercase;
      color: #8792a2;
      margin-bottom: 6px;
      font-weight: 600;
      letter-spacing: 0.3px;
    }
    .value { font-size: 14px; line-height: 1.5; }
    .amount-large { font-size: 32px; font-weight: 700; margin-bottom: 40px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
    th {
      text-align: left;
      text-transform: uppercase;
      font-size: 11px;
      color: #8792a2;
      border-bottom: 1px solid #e3e8ee;
      padding: 10px 0;
    }
    td { padding: 16px 0; border-bottom: 1px solid #e3e8ee; font-size: 14px; vertical-align: top; }
    .td-right { text-align: right; }
    .totals { display: flex; flex-direction: column; align-items: flex-end; }
    .total-row { display: flex; justify-content: space-between; width: 280px; padding: 6px 0; font-size: 14px; }
    .total-label { color: #697386; }
    .total-final { border-top: 1px solid #e3e8ee; margin-top: 10px; padding-top: 10px; font-weight: 700; font-size: 16px; }
    .footer { margin-top: 60px; font-size: 12px; color: #697386; border-top: 1px solid #e3e8ee; padding-top: 20px; }
    .notes { white-space: pre-wrap; }
  </style>
</head>
<body>
  <div class="invoice-card">
    <div class="header">
      <div>
        <h1>{{.Company.Name}}</h1>
        <div class="value">Invoice {{.Invoice.InvoiceNumber}}</div>
      </div>
      <div class="header-right value">
        Issue Date: {{formatDate .Invoice.Date}}{{if .Invoice.Period}} | {{.Invoice.Period}}{{end}}
      </div>
    </div>

    <div class="label">Amount Due</div>
    <div class="amount-large">{{formatMoney .Invoice.Total}}</div>

    <div class="meta-grid">
      <div class="col">
        <div class="label">From</div>
        <div class="value">
          <strong>{{.Company.Trade}}</strong><br>
          {{.Company.LegalName}}<br>
          {{.Company.Address}}<br>
          {{.Company.City}}
        </div>
      </div>
      <div class="col">
        <div class="label">Bill To</div>
        <div class="value">
          <strong>{{.Client.Name}}</strong>
          {{if .Client.Address}}<br>{{.Client.Address}}{{end}}
          {{if .Client.Phone}}<br>Tel: {{.Client.Phone}}{{end}}
          {{if .Client.Email}}<br>{{.Client.Email}}{{end}}
          {{if .Client.TaxID}}<br>Tax ID: {{.Client.TaxID}}{{end}}
        </div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th style="width: 50%;">Description</th>
          <th class="td-right">Qty</th>
          <th class="td-right">Unit Price</th>
          <th class="td-right">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Lines}}
        <tr>
          <td>{{.Description}}</td>
          <td class="td-right">{{formatQuantity .Quantity}}</td>
          <td class="td-right">{{formatMoney .UnitPrice}}</td>
          <td class="td-right">{{formatMoney .Total}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="total-row">
        <span class="total-label">Subtotal</span>
        <span>{{formatMoney .Invoice.Subtotal}}</span>
      </div>
      {{if .Invoice.DiscountAmount.IsPositive}}
      <div class="total-row">
        <span class="total-label">Discount ({{.Invoice.VisitDiscountPercent}}% on visits)</span>
        <span>-{{formatMoney .Invoice.DiscountAmount}}</span>
      </div>
      {{end}}
      <div class="total-row total-final">
        <span>Total Due</span>
        <span>{{formatMoney .Invoice.Total}}</span>
      </div>
    </div>

    <div class="footer">
      <div class="label">Payment Details</div>
      <div class="value">
        Bank: {{.Company.Bank.Name}}<br>
        ABA: {{.Company.Bank.ABA}}<br>
        SWIFT: {{.Company.Bank.SWIFT}}<br>
        Beneficiary: {{.Company.Bank.Beneficiary}}<br>
        Account: {{.Company.Bank.Account}}<br>
        Address: {{.Company.Bank.Address}}
      </div>
      {{range .Company.Bank.Notes}}<div>* {{.}}</div>{{end}}
      {{if .Invoice.Notes}}
      <div class="label" style="margin-top: 16px;">Notes</div>
      <div class="notes">{{.Invoice.Notes}}</div>
      {{end}}
    </div>
  </div>
</body>
</html>
`

type HTMLRenderer struct {
	tpl *template.Template
}

func NewRenderer() Renderer {
	funcs := template.FuncMap{
		"formatMoney":    format.FormatMoney,
		"formatDate":     format.FormatDate,
		"formatQuantity": format.FormatQuantity,
	}
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(doc domain.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
