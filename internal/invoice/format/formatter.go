package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

var (
	seqPadRe  = regexp.MustCompile(`\{SEQ(\d+)\}`)
	nonDigits = regexp.MustCompile(`\D`)
)

const DefaultInvoiceNumberTemplate = "INV-{SEQ4}"

// FormatInvoiceNumber formats a human-readable invoice number
// based on a template, invoice issue time, and sequence.
//
// Supported tokens: {YYYY} {YY} {MM} {DD} {SEQ} and {SEQn}, where n is
// the zero-padded width. A sequence wider than n is never truncated.
func FormatInvoiceNumber(
	template string,
	issuedAt time.Time,
	seq int64,
) (string, error) {

	if template == "" {
		return "", fmt.Errorf("invoice number template is empty")
	}

	if seq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", seq)
	}

	out := template

	out = strings.ReplaceAll(out, "{YYYY}", issuedAt.Format("2006"))
	out = strings.ReplaceAll(out, "{YY}", issuedAt.Format("06"))
	out = strings.ReplaceAll(out, "{MM}", issuedAt.Format("01"))
	out = strings.ReplaceAll(out, "{DD}", issuedAt.Format("02"))

	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.Contains(out, "{") || strings.Contains(out, "}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}

	return out, nil
}

// ParseSequence extracts the numeric sequence from an invoice number by
// concatenating all of its digits. Numbers without digits, or whose digits
// overflow int64, yield zero.
func ParseSequence(number string) int64 {
	digits := nonDigits.ReplaceAllString(number, "")
	if digits == "" {
		return 0
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return seq
}

// FormatCurrency renders amount rounded half away from zero to two decimals
// with comma thousands separators, e.g. 1234.5 -> "1,234.50".
func FormatCurrency(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	if fixed == "0.00" {
		sign = ""
	}

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	b.WriteString(sign)
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatMoney prefixes FormatCurrency with the currency code.
func FormatMoney(amount decimal.Decimal) string {
	return "USD " + FormatCurrency(amount)
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(qty decimal.Decimal) string {
	return qty.String()
}

// FormatDate renders a stored YYYY-MM-DD date as "Jan 2, 2006". Values that
// do not parse are returned unchanged.
func FormatDate(value string) string {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}

// PDFFileName returns the download name for an invoice PDF.
func PDFFileName(number string) string {
	name := slug.Make(number)
	if name == "" {
		name = "draft"
	}
	return "invoice-" + name + ".pdf"
}
