package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicer/internal/client/domain"
	clientrepository "github.com/smallbiznis/invoicer/internal/client/repository"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	"github.com/smallbiznis/invoicer/internal/invoice/repository"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/smallbiznis/invoicer/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakePDF struct {
	last domain.Document
}

func (f *fakePDF) GenerateInvoice(_ context.Context, doc domain.Document) ([]byte, error) {
	f.last = doc
	return []byte("%PDF-fake"), nil
}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	pdf   *fakePDF
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&clientdomain.Client{}, &domain.Invoice{}, &domain.InvoiceItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	pdf := &fakePDF{}
	svc := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       repository.Provide(),
		ClientRepo: clientrepository.Provide(),
		Pricing:    config.NewStaticPricingConfigHolder(pricing.DefaultSchedule(), config.DefaultCompanyConfig()),
		Renderer:   render.NewRenderer(),
		PDF:        pdf,
	})
	return &fixture{svc: svc, db: conn, clock: fake, pdf: pdf, node: node}
}

func (f *fixture) seedClient(t *testing.T, name string) clientdomain.Client {
	t.Helper()
	client := clientdomain.Client{
		ID:        f.node.Generate(),
		Name:      name,
		Email:     "billing@example.com",
		CreatedAt: f.clock.Now(),
		UpdatedAt: f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&client).Error)
	return client
}

func (f *fixture) create(t *testing.T, clientID snowflake.ID, number string) domain.InvoiceDetail {
	t.Helper()
	f.clock.Advance(time.Minute)
	detail, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID:      clientID.String(),
		InvoiceNumber: number,
		Date:          "2025-03-01",
		ProtocolCount: 2,
	})
	require.NoError(t, err)
	return detail
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCreateSnapshotsPricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")

	detail, err := f.svc.Create(ctx, domain.CreateInvoiceRequest{
		ClientID:                 client.ID.String(),
		InvoiceNumber:            " INV-0001 ",
		Date:                     "2025-03-01",
		Period:                   "March 2025",
		ProtocolCount:            12,
		OnsiteVisits:             40,
		RemoteVisits:             20,
		IncludeImplementationFee: true,
		Items: []domain.ItemInput{
			{Description: "Travel", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("12.5")},
			{Description: "Printing", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.Zero},
		},
	})
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, "INV-0001", inv.InvoiceNumber)
	assert.Equal(t, domain.StatusDraft, inv.Status)
	assertDecimal(t, "250", inv.ProtocolUnitPrice)
	assertDecimal(t, "250", inv.ProtocolTotal)
	assertDecimal(t, "400", inv.OnsiteTotal)
	assertDecimal(t, "50", inv.RemoteTotal)
	assertDecimal(t, "10", inv.VisitDiscountPercent)
	assertDecimal(t, "45", inv.VisitDiscountAmount)
	assertDecimal(t, "1000", inv.ImplementationFee)
	assertDecimal(t, "25", inv.LineItemsTotal)
	assertDecimal(t, "1725", inv.Subtotal)
	assertDecimal(t, "45", inv.DiscountAmount)
	assertDecimal(t, "1680", inv.Total)

	stored, err := f.svc.GetByID(ctx, inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Client.Name)
	assertDecimal(t, "1680", stored.Invoice.Total)
	assertDecimal(t, "2.5", stored.Invoice.RemoteUnitPrice)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, "Travel", stored.Items[0].Description)
	assert.Equal(t, 0, stored.Items[0].SortOrder)
	assertDecimal(t, "25", stored.Items[0].Total)
	assert.Equal(t, "Printing", stored.Items[1].Description)
	assert.Equal(t, 1, stored.Items[1].SortOrder)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")

	valid := func() domain.CreateInvoiceRequest {
		return domain.CreateInvoiceRequest{
			ClientID:      client.ID.String(),
			InvoiceNumber: "INV-0001",
			Date:          "2025-03-01",
		}
	}

	cases := []struct {
		name   string
		mutate func(*domain.CreateInvoiceRequest)
		want   error
	}{
		{name: "missing client", mutate: func(r *domain.CreateInvoiceRequest) { r.ClientID = "" }, want: domain.ErrInvalidClient},
		{name: "unknown client", mutate: func(r *domain.CreateInvoiceRequest) { r.ClientID = "12345" }, want: domain.ErrClientNotFound},
		{name: "missing number", mutate: func(r *domain.CreateInvoiceRequest) { r.InvoiceNumber = "  " }, want: domain.ErrInvalidNumber},
		{name: "bad date", mutate: func(r *domain.CreateInvoiceRequest) { r.Date = "03/01/2025" }, want: domain.ErrInvalidDate},
		{name: "negative count", mutate: func(r *domain.CreateInvoiceRequest) { r.RemoteVisits = -1 }, want: domain.ErrInvalidCount},
		{name: "blank item", mutate: func(r *domain.CreateInvoiceRequest) {
			r.Items = []domain.ItemInput{{Description: " ", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}}
		}, want: domain.ErrInvalidItem},
		{name: "negative price", mutate: func(r *domain.CreateInvoiceRequest) {
			r.Items = []domain.ItemInput{{Description: "Fee", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-1)}}
		}, want: domain.ErrInvalidItem},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)
			_, err := f.svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateDuplicateNumber(t *testing.T) {
	f := newFixture(t)
	client := f.seedClient(t, "Acme")
	f.create(t, client.ID, "INV-0001")

	_, err := f.svc.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID:      client.ID.String(),
		InvoiceNumber: "INV-0001",
		Date:          "2025-03-02",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestNextNumber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	next, err := f.svc.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", next)

	client := f.seedClient(t, "Acme")
	f.create(t, client.ID, "INV-0041")
	f.create(t, client.ID, "INV-0009")

	next, err = f.svc.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0010", next)

	f.create(t, client.ID, "MANUAL")
	next, err = f.svc.NextNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", next)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	acme := f.seedClient(t, "Acme")
	globex := f.seedClient(t, "Globex")

	first := f.create(t, acme.ID, "INV-0001")
	f.create(t, globex.ID, "INV-0002")
	third := f.create(t, acme.ID, "INV-0003")

	_, err := f.svc.UpdateStatus(ctx, first.Invoice.ID.String(), "paid")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, domain.ListInvoiceRequest{})
	require.NoError(t, err)
	require.Len(t, all.Invoices, 3)
	assert.Equal(t, third.Invoice.ID, all.Invoices[0].ID)
	require.NotNil(t, all.Invoices[0].Client)
	assert.Equal(t, "Acme", all.Invoices[0].Client.Name)
	assert.False(t, all.HasMore)

	byClient, err := f.svc.List(ctx, domain.ListInvoiceRequest{ClientID: acme.ID.String()})
	require.NoError(t, err)
	assert.Len(t, byClient.Invoices, 2)

	paid, err := f.svc.List(ctx, domain.ListInvoiceRequest{Status: "PAID"})
	require.NoError(t, err)
	require.Len(t, paid.Invoices, 1)
	assert.Equal(t, first.Invoice.ID, paid.Invoices[0].ID)

	page1, err := f.svc.List(ctx, domain.ListInvoiceRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page1.Invoices, 2)
	assert.True(t, page1.HasMore)

	page2, err := f.svc.List(ctx, domain.ListInvoiceRequest{PageSize: 2, PageToken: page1.NextPageToken})
	require.NoError(t, err)
	require.Len(t, page2.Invoices, 1)
	assert.Equal(t, first.Invoice.ID, page2.Invoices[0].ID)
	assert.False(t, page2.HasMore)

	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{Status: "void"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.List(ctx, domain.ListInvoiceRequest{PageToken: "!!garbage!!"})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestItemAmountsStoredUnrounded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")

	detail, err := f.svc.Create(ctx, domain.CreateInvoiceRequest{
		ClientID:      client.ID.String(),
		InvoiceNumber: "INV-0001",
		Date:          "2025-03-01",
		Items: []domain.ItemInput{
			{Description: "Courier", Quantity: decimal.RequireFromString("0.75"), UnitPrice: decimal.RequireFromString("12.345")},
		},
	})
	require.NoError(t, err)

	stored, err := f.svc.GetByID(ctx, detail.Invoice.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assertDecimal(t, "9.25875", stored.Items[0].Total)
	assertDecimal(t, "9.25875", stored.Invoice.LineItemsTotal)
}

func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")
	inv := f.create(t, client.ID, "INV-0001")
	id := inv.Invoice.ID.String()

	for _, status := range []string{"sent", "paid", "draft", "paid"} {
		updated, err := f.svc.UpdateStatus(ctx, id, status)
		require.NoError(t, err)
		assert.Equal(t, domain.Status(status), updated.Status)
	}

	stored, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, stored.Invoice.Status)

	_, err = f.svc.UpdateStatus(ctx, id, "cancelled")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.svc.UpdateStatus(ctx, "999", "sent")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.UpdateStatus(ctx, "abc", "sent")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestDeleteRemovesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")

	detail, err := f.svc.Create(ctx, domain.CreateInvoiceRequest{
		ClientID:      client.ID.String(),
		InvoiceNumber: "INV-0001",
		Date:          "2025-03-01",
		Items:         []domain.ItemInput{{Description: "Fee", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, detail.Invoice.ID.String()))

	var items int64
	require.NoError(t, f.db.Model(&domain.InvoiceItem{}).Count(&items).Error)
	assert.Zero(t, items)

	_, err = f.svc.GetByID(ctx, detail.Invoice.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, detail.Invoice.ID.String()), domain.ErrNotFound)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.Quote(context.Background(), pricing.Input{ProtocolCount: 3, OnsiteVisits: 60})
	require.NoError(t, err)
	assertDecimal(t, "150", result.ProtocolTotal)
	assertDecimal(t, "60", result.VisitDiscountAmount)
	assertDecimal(t, "690", result.Total)

	_, err = f.svc.Quote(context.Background(), pricing.Input{OnsiteVisits: -2})
	assert.ErrorIs(t, err, domain.ErrInvalidCount)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")
	f.seedClient(t, "Globex")

	a := f.create(t, client.ID, "INV-0001")
	f.create(t, client.ID, "INV-0002")
	_, err := f.svc.UpdateStatus(ctx, a.Invoice.ID.String(), "sent")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalClients)
	assert.Equal(t, int64(2), stats.TotalInvoices)
	assert.Equal(t, int64(1), stats.ByStatus[domain.StatusDraft].Count)
	assert.Equal(t, int64(1), stats.ByStatus[domain.StatusSent].Count)
	assert.Equal(t, int64(0), stats.ByStatus[domain.StatusPaid].Count)
	assertDecimal(t, "150", stats.ByStatus[domain.StatusSent].Total)
	assertDecimal(t, "0", stats.ByStatus[domain.StatusPaid].Total)
}

func TestRenderHTMLAndPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	client := f.seedClient(t, "Acme")
	inv := f.create(t, client.ID, "INV-0007")

	html, err := f.svc.RenderHTML(ctx, inv.Invoice.ID.String())
	require.NoError(t, err)
	assert.Contains(t, string(html), "INV-0007")
	assert.Contains(t, string(html), "Protocol Base Fee")

	file, err := f.svc.RenderPDF(ctx, inv.Invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "invoice-inv-0007.pdf", file.Name)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, []byte("%PDF-fake"), file.Body)
	assert.Equal(t, "Acme", f.pdf.last.Client.Name)
	assert.Equal(t, config.DefaultCompanyConfig().Name, f.pdf.last.Company.Name)

	_, err = f.svc.RenderPDF(ctx, "42")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
