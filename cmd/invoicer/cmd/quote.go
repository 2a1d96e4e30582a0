package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	quoteProtocols      int
	quoteOnsite         int
	quoteRemote         int
	quoteImplementation bool
	quoteItems          []string
	quoteFormat         string
	quoteVerbose        bool
)

var errInvalidItem = errors.New("item must be quantity:unit_price with non-negative decimals")

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price an invoice without storing it",
	Long: `Compute invoice totals with the configured pricing schedule.

Examples:
  invoicer quote --protocols 12 --onsite 30 --remote 40
  invoicer quote --protocols 3 --implementation --item 2:150 --item 1:49.99
  invoicer quote --protocols 8 --format yaml`,
	Args: cobra.NoArgs,
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().IntVarP(&quoteProtocols, "protocols", "p", 0, "number of protocols")
	quoteCmd.Flags().IntVar(&quoteOnsite, "onsite", 0, "number of on-site visits")
	quoteCmd.Flags().IntVar(&quoteRemote, "remote", 0, "number of remote visits")
	quoteCmd.Flags().BoolVar(&quoteImplementation, "implementation", false, "include the implementation fee")
	quoteCmd.Flags().StringArrayVar(&quoteItems, "item", nil, "extra line item as quantity:unit_price (repeatable)")
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "text", "output format (text, json, yaml)")
	quoteCmd.Flags().BoolVarP(&quoteVerbose, "verbose", "v", false, "log config loading")
}

func runQuote(cmd *cobra.Command, args []string) error {
	input, err := buildQuoteInput(quoteProtocols, quoteOnsite, quoteRemote, quoteImplementation, quoteItems)
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if quoteVerbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer func() { _ = log.Sync() }()

	holder, err := config.NewPricingConfigHolder(log)
	if err != nil {
		return fmt.Errorf("load pricing config: %w", err)
	}

	result := holder.Schedule().ComputeInvoiceTotals(input)
	return writeQuote(cmd.OutOrStdout(), quoteFormat, result)
}

func buildQuoteInput(protocols, onsite, remote int, implementation bool, items []string) (pricing.Input, error) {
	if protocols < 0 || onsite < 0 || remote < 0 {
		return pricing.Input{}, errors.New("protocol and visit counts must not be negative")
	}
	input := pricing.Input{
		ProtocolCount:            protocols,
		OnsiteVisits:             onsite,
		RemoteVisits:             remote,
		IncludeImplementationFee: implementation,
	}
	for _, raw := range items {
		item, err := parseItem(raw)
		if err != nil {
			return pricing.Input{}, fmt.Errorf("%q: %w", raw, err)
		}
		input.LineItems = append(input.LineItems, item)
	}
	return input, nil
}

func parseItem(raw string) (pricing.LineItem, error) {
	qty, price, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return pricing.LineItem{}, errInvalidItem
	}
	quantity, err := decimal.NewFromString(strings.TrimSpace(qty))
	if err != nil || quantity.IsNegative() {
		return pricing.LineItem{}, errInvalidItem
	}
	unitPrice, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil || unitPrice.IsNegative() {
		return pricing.LineItem{}, errInvalidItem
	}
	return pricing.LineItem{Quantity: quantity, UnitPrice: unitPrice}, nil
}

func writeQuote(w io.Writer, outputFormat string, result pricing.Result) error {
	switch strings.ToLower(strings.TrimSpace(outputFormat)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(quoteYAML(result)); err != nil {
			return err
		}
		return enc.Close()
	case "", "text":
		return writeQuoteText(w, result)
	default:
		return fmt.Errorf("unknown format %q", outputFormat)
	}
}

// decimal.Decimal has no YAML marshaller, so values are emitted as strings.
func quoteYAML(r pricing.Result) map[string]any {
	return map[string]any{
		"protocol_unit_price":    r.ProtocolUnitPrice.String(),
		"protocol_total":         r.ProtocolTotal.String(),
		"onsite_unit_price":      r.OnsiteUnitPrice.String(),
		"onsite_total":           r.OnsiteTotal.String(),
		"remote_unit_price":      r.RemoteUnitPrice.String(),
		"remote_total":           r.RemoteTotal.String(),
		"visit_subtotal":         r.VisitSubtotal.String(),
		"total_visits":           r.TotalVisits,
		"visit_discount_percent": r.VisitDiscountPercent.String(),
		"visit_discount_amount":  r.VisitDiscountAmount.String(),
		"visit_after_discount":   r.VisitAfterDiscount.String(),
		"implementation_fee":     r.ImplementationFee.String(),
		"line_items_total":       r.LineItemsTotal.String(),
		"subtotal":               r.Subtotal.String(),
		"discount_amount":        r.DiscountAmount.String(),
		"total":                  r.Total.String(),
	}
}

func writeQuoteText(w io.Writer, r pricing.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Protocol unit price", format.FormatMoney(r.ProtocolUnitPrice)},
		{"Protocol total", format.FormatMoney(r.ProtocolTotal)},
		{"On-site visits", format.FormatMoney(r.OnsiteTotal)},
		{"Remote visits", format.FormatMoney(r.RemoteTotal)},
		{"Visit discount", r.VisitDiscountPercent.String() + "%"},
		{"Implementation fee", format.FormatMoney(r.ImplementationFee)},
		{"Line items", format.FormatMoney(r.LineItemsTotal)},
		{"Subtotal", format.FormatMoney(r.Subtotal)},
		{"Discount", "-" + format.FormatMoney(r.DiscountAmount)},
		{"Total", format.FormatMoney(r.Total)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
