package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	issued := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		template string
		seq      int64
		want     string
	}{
		{name: "default", template: DefaultInvoiceNumberTemplate, seq: 1, want: "INV-0001"},
		{name: "wider than pad", template: DefaultInvoiceNumberTemplate, seq: 12345, want: "INV-12345"},
		{name: "dated", template: "INV-{YYYY}{MM}{DD}-{SEQ6}", seq: 42, want: "INV-20250307-000042"},
		{name: "short year", template: "{YY}/{SEQ}", seq: 9, want: "25/9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FormatInvoiceNumber(tc.template, issued, tc.seq)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	_, err := FormatInvoiceNumber("", time.Now(), 1)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, time.Now(), 0)
	assert.Error(t, err)

	_, err = FormatInvoiceNumber("INV-{NOPE}", time.Now(), 1)
	assert.Error(t, err)
}

func TestParseSequence(t *testing.T) {
	assert.Equal(t, int64(12), ParseSequence("INV-0012"))
	assert.Equal(t, int64(202501), ParseSequence("2025-01"))
	assert.Equal(t, int64(0), ParseSequence("DRAFT"))
	assert.Equal(t, int64(0), ParseSequence(""))
	assert.Equal(t, int64(0), ParseSequence("INV-99999999999999999999999"))
}

func TestFormatCurrency(t *testing.T) {
	cases := map[string]string{
		"0":          "0.00",
		"1234.5":     "1,234.50",
		"999.999":    "1,000.00",
		"1000000":    "1,000,000.00",
		"12.345":     "12.35",
		"100":        "100.00",
		"-2500.125":  "-2,500.13",
		"-0.001":     "0.00",
		"123456.789": "123,456.79",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatCurrency(decimal.RequireFromString(in)), in)
	}
}

func TestFormatMoneyAndQuantity(t *testing.T) {
	assert.Equal(t, "USD 2,750.00", FormatMoney(decimal.NewFromInt(2750)))
	assert.Equal(t, "2.5", FormatQuantity(decimal.RequireFromString("2.5000")))
	assert.Equal(t, "3", FormatQuantity(decimal.NewFromInt(3)))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Mar 7, 2025", FormatDate("2025-03-07"))
	assert.Equal(t, "not a date", FormatDate("not a date"))
}

func TestPDFFileName(t *testing.T) {
	assert.Equal(t, "invoice-inv-0001.pdf", PDFFileName("INV-0001"))
	assert.Equal(t, "invoice-2025-03-a.pdf", PDFFileName("2025/03 A"))
}
