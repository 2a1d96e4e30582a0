package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	expected := decimal.RequireFromString(want)
	assert.Truef(t, expected.Equal(got), "expected %s, got %s %v", expected, got, msgAndArgs)
}

func TestUnitPriceForProtocolCount_NonPositiveIsZero(t *testing.T) {
	for _, count := range []int{0, -1, -50} {
		assertDecimal(t, "0", UnitPriceForProtocolCount(count), count)
	}
}

func TestUnitPriceForProtocolCount_Brackets(t *testing.T) {
	cases := []struct {
		counts []int
		price  string
	}{
		{[]int{1, 3, 5}, "150"},
		{[]int{6, 10}, "200"},
		{[]int{11, 20}, "250"},
		{[]int{21, 30}, "300"},
		{[]int{31, 40}, "350"},
		{[]int{41, 50}, "400"},
		{[]int{51, 52, 1000, 1 << 30}, "600"},
	}
	for _, tc := range cases {
		for _, count := range tc.counts {
			assertDecimal(t, tc.price, UnitPriceForProtocolCount(count), count)
		}
	}
}

func TestDiscountPercentForVisitVolume_Brackets(t *testing.T) {
	cases := []struct {
		visits  []int
		percent string
	}{
		{[]int{-3, 0}, "0"},
		{[]int{1, 50}, "0"},
		{[]int{51, 100}, "10"},
		{[]int{101, 150}, "20"},
		{[]int{151, 200}, "30"},
		{[]int{201, 250}, "40"},
		{[]int{251, 400}, "45"},
		{[]int{401, 5000}, "50"},
	}
	for _, tc := range cases {
		for _, v := range tc.visits {
			assertDecimal(t, tc.percent, DiscountPercentForVisitVolume(v), v)
		}
	}
}

func TestTierLookups_AreNonDecreasing(t *testing.T) {
	prevPrice := UnitPriceForProtocolCount(0)
	prevPercent := DiscountPercentForVisitVolume(0)
	for n := 1; n <= 600; n++ {
		price := UnitPriceForProtocolCount(n)
		percent := DiscountPercentForVisitVolume(n)
		require.Falsef(t, price.LessThan(prevPrice), "price decreased at %d", n)
		require.Falsef(t, percent.LessThan(prevPercent), "percent decreased at %d", n)
		prevPrice, prevPercent = price, percent
	}
}

// A table whose top tier is bounded leaves counts above it unmatched. Those
// resolve to the last tier rather than to zero. The default tables always
// end in an open tier, so this path is only reachable through configuration.
func TestTierLookups_FallBackToTopTierWhenUnmatched(t *testing.T) {
	schedule, err := NewSchedule(
		[]PriceTier{
			{MinCount: 1, MaxCount: bound(5), UnitPrice: decimal.NewFromInt(150)},
			{MinCount: 6, MaxCount: bound(10), UnitPrice: decimal.NewFromInt(600)},
		},
		[]DiscountTier{
			{MinVisits: 1, MaxVisits: bound(50), DiscountPercent: decimal.Zero},
			{MinVisits: 51, MaxVisits: bound(100), DiscountPercent: decimal.NewFromInt(50)},
		},
		DefaultRates(),
	)
	require.NoError(t, err)

	assertDecimal(t, "600", schedule.UnitPriceForProtocolCount(11))
	assertDecimal(t, "600", schedule.UnitPriceForProtocolCount(10_000))
	assertDecimal(t, "50", schedule.DiscountPercentForVisitVolume(101))
	assertDecimal(t, "0", schedule.UnitPriceForProtocolCount(0))
	assertDecimal(t, "0", schedule.DiscountPercentForVisitVolume(0))
}

func TestComputeInvoiceTotals_ProtocolOnly(t *testing.T) {
	res := ComputeInvoiceTotals(Input{ProtocolCount: 7})

	assertDecimal(t, "200", res.ProtocolUnitPrice)
	assertDecimal(t, "200", res.ProtocolTotal)
	assertDecimal(t, "0", res.OnsiteTotal)
	assertDecimal(t, "0", res.RemoteTotal)
	assertDecimal(t, "0", res.VisitDiscountPercent)
	assertDecimal(t, "200", res.Total)
}

func TestComputeInvoiceTotals_VisitDiscount(t *testing.T) {
	res := ComputeInvoiceTotals(Input{OnsiteVisits: 60})

	assertDecimal(t, "600.00", res.OnsiteTotal)
	assert.Equal(t, 60, res.TotalVisits)
	assertDecimal(t, "10", res.VisitDiscountPercent)
	assertDecimal(t, "60.00", res.VisitDiscountAmount)
	assertDecimal(t, "540.00", res.VisitAfterDiscount)
	assertDecimal(t, "600.00", res.Subtotal)
	assertDecimal(t, "540.00", res.Total)
}

func TestComputeInvoiceTotals_ImplementationAndLineItems(t *testing.T) {
	res := ComputeInvoiceTotals(Input{
		IncludeImplementationFee: true,
		LineItems: []LineItem{
			{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)},
		},
	})

	assertDecimal(t, "1000.00", res.ImplementationFee)
	assertDecimal(t, "100.00", res.LineItemsTotal)
	assertDecimal(t, "1100.00", res.Total)
}

func TestComputeInvoiceTotals_TopBrackets(t *testing.T) {
	res := ComputeInvoiceTotals(Input{
		ProtocolCount:            55,
		OnsiteVisits:             410,
		IncludeImplementationFee: true,
	})

	assertDecimal(t, "600", res.ProtocolTotal)
	assertDecimal(t, "4100.00", res.OnsiteTotal)
	assertDecimal(t, "50", res.VisitDiscountPercent)
	assertDecimal(t, "2050.00", res.VisitDiscountAmount)
	assertDecimal(t, "1000.00", res.ImplementationFee)
	assertDecimal(t, "5700.00", res.Subtotal)
	assertDecimal(t, "3650.00", res.Total)
}

func TestComputeInvoiceTotals_RemoteVisitsAreNotRounded(t *testing.T) {
	res := ComputeInvoiceTotals(Input{OnsiteVisits: 200, RemoteVisits: 51})

	assertDecimal(t, "127.5", res.RemoteTotal)
	assertDecimal(t, "2127.5", res.VisitSubtotal)
	assertDecimal(t, "45", res.VisitDiscountPercent)
	assertDecimal(t, "957.375", res.VisitDiscountAmount)
	assertDecimal(t, "1170.125", res.Total)
}

func TestComputeInvoiceTotals_TotalDecomposes(t *testing.T) {
	inputs := []Input{
		{},
		{ProtocolCount: 3, OnsiteVisits: 12, RemoteVisits: 7},
		{ProtocolCount: 45, OnsiteVisits: 150, RemoteVisits: 150, IncludeImplementationFee: true},
		{ProtocolCount: 100, RemoteVisits: 999, LineItems: []LineItem{
			{Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.RequireFromString("33.33")},
			{Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(10)},
		}},
	}
	for _, in := range inputs {
		res := ComputeInvoiceTotals(in)
		want := res.ProtocolTotal.
			Add(res.OnsiteTotal).
			Add(res.RemoteTotal).
			Add(res.ImplementationFee).
			Add(res.LineItemsTotal).
			Sub(res.VisitDiscountAmount)
		assert.Truef(t, want.Equal(res.Total), "total %s != decomposition %s for %+v", res.Total, want, in)
		assert.True(t, res.DiscountAmount.Equal(res.VisitDiscountAmount))
	}
}

func TestComputeInvoiceTotals_DiscountOnlyDependsOnVisits(t *testing.T) {
	base := Input{OnsiteVisits: 80, RemoteVisits: 40}
	baseline := ComputeInvoiceTotals(base).VisitDiscountAmount

	variants := []Input{
		{OnsiteVisits: 80, RemoteVisits: 40, ProtocolCount: 60},
		{OnsiteVisits: 80, RemoteVisits: 40, IncludeImplementationFee: true},
		{OnsiteVisits: 80, RemoteVisits: 40, LineItems: []LineItem{
			{Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(999)},
		}},
	}
	for _, in := range variants {
		assert.True(t, baseline.Equal(ComputeInvoiceTotals(in).VisitDiscountAmount))
	}
}

func TestComputeInvoiceTotals_IsDeterministic(t *testing.T) {
	in := Input{
		ProtocolCount:            23,
		OnsiteVisits:             77,
		RemoteVisits:             33,
		IncludeImplementationFee: true,
		LineItems: []LineItem{
			{Quantity: decimal.RequireFromString("3"), UnitPrice: decimal.RequireFromString("19.99")},
		},
	}
	assert.Equal(t, ComputeInvoiceTotals(in), ComputeInvoiceTotals(in))
}
