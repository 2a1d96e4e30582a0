package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseItem(t *testing.T) {
	item, err := parseItem(" 2 : 49.99 ")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2).Equal(item.Quantity))
	assert.True(t, decimal.RequireFromString("49.99").Equal(item.UnitPrice))

	for _, raw := range []string{"", "2", "x:1", "1:y", "-1:5", "1:-5"} {
		_, err := parseItem(raw)
		assert.ErrorIs(t, err, errInvalidItem, raw)
	}
}

func TestBuildQuoteInput(t *testing.T) {
	input, err := buildQuoteInput(3, 10, 4, true, []string{"1:100", "0.5:20"})
	require.NoError(t, err)
	assert.Equal(t, 3, input.ProtocolCount)
	assert.Equal(t, 10, input.OnsiteVisits)
	assert.Equal(t, 4, input.RemoteVisits)
	assert.True(t, input.IncludeImplementationFee)
	require.Len(t, input.LineItems, 2)

	_, err = buildQuoteInput(-1, 0, 0, false, nil)
	assert.Error(t, err)

	_, err = buildQuoteInput(1, 0, 0, false, []string{"bad"})
	assert.ErrorIs(t, err, errInvalidItem)
}

func TestWriteQuoteFormats(t *testing.T) {
	result := pricing.DefaultSchedule().ComputeInvoiceTotals(pricing.Input{ProtocolCount: 3, OnsiteVisits: 60})

	var jsonOut bytes.Buffer
	require.NoError(t, writeQuote(&jsonOut, "json", result))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(jsonOut.Bytes(), &decoded))
	assert.Equal(t, "690", decoded["total"])
	assert.Equal(t, float64(60), decoded["total_visits"])

	var yamlOut bytes.Buffer
	require.NoError(t, writeQuote(&yamlOut, "yaml", result))
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(yamlOut.Bytes(), &fromYAML))
	assert.Equal(t, "690", fromYAML["total"])
	assert.Equal(t, "10", fromYAML["visit_discount_percent"])

	var textOut bytes.Buffer
	require.NoError(t, writeQuote(&textOut, "text", result))
	assert.Contains(t, textOut.String(), "USD 690.00")
	assert.Contains(t, textOut.String(), "-USD 60.00")

	assert.Error(t, writeQuote(&bytes.Buffer{}, "xml", result))
}
