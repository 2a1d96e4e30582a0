package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicer/internal/client/domain"
	"github.com/smallbiznis/invoicer/internal/clock"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/internal/invoice/format"
	"github.com/smallbiznis/invoicer/internal/invoice/render"
	"github.com/smallbiznis/invoicer/internal/observability/metrics"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/smallbiznis/invoicer/pkg/db"
	"github.com/smallbiznis/invoicer/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	ClientRepo clientdomain.Repository
	Pricing    *config.PricingConfigHolder
	Renderer   render.Renderer     `optional:"true"`
	PDF        domain.PDFGenerator `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	clientRepo clientdomain.Repository
	pricing    *config.PricingConfigHolder
	renderer   render.Renderer
	pdf        domain.PDFGenerator
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.System{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      c,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
		pricing:    p.Pricing,
		renderer:   p.Renderer,
		pdf:        p.PDF,
		metrics:    p.Metrics,
	}
}

// Create prices and stores an invoice together with its items. Unit prices
// and totals are copied from the active schedule so the stored invoice does
// not change when the schedule does.
func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.InvoiceDetail, error) {
	clientID, err := parseClientID(req.ClientID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	number := strings.TrimSpace(req.InvoiceNumber)
	if number == "" {
		return domain.InvoiceDetail{}, domain.ErrInvalidNumber
	}

	date := strings.TrimSpace(req.Date)
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return domain.InvoiceDetail{}, domain.ErrInvalidDate
	}

	input, err := buildInput(req.ProtocolCount, req.OnsiteVisits, req.RemoteVisits, req.IncludeImplementationFee, req.Items)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	client, err := s.clientRepo.FindByID(ctx, s.db, clientID)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if client == nil {
		return domain.InvoiceDetail{}, domain.ErrClientNotFound
	}

	result := s.pricing.Schedule().ComputeInvoiceTotals(input)
	s.metrics.RecordQuote(ctx, "invoice")

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:                   s.genID.Generate(),
		ClientID:             clientID,
		InvoiceNumber:        number,
		Date:                 date,
		Period:               strings.TrimSpace(req.Period),
		ProtocolCount:        req.ProtocolCount,
		ProtocolUnitPrice:    result.ProtocolUnitPrice,
		ProtocolTotal:        result.ProtocolTotal,
		OnsiteVisits:         req.OnsiteVisits,
		OnsiteUnitPrice:      result.OnsiteUnitPrice,
		OnsiteTotal:          result.OnsiteTotal,
		RemoteVisits:         req.RemoteVisits,
		RemoteUnitPrice:      result.RemoteUnitPrice,
		RemoteTotal:          result.RemoteTotal,
		VisitDiscountPercent: result.VisitDiscountPercent,
		VisitDiscountAmount:  result.VisitDiscountAmount,
		ImplementationFee:    result.ImplementationFee,
		LineItemsTotal:       result.LineItemsTotal,
		Subtotal:             result.Subtotal,
		DiscountAmount:       result.DiscountAmount,
		Total:                result.Total,
		Notes:                strings.TrimSpace(req.Notes),
		Status:               domain.StatusDraft,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for i, item := range req.Items {
		items = append(items, domain.InvoiceItem{
			ID:          s.genID.Generate(),
			InvoiceID:   invoice.ID,
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Quantity.Mul(item.UnitPrice),
			SortOrder:   i,
			CreatedAt:   now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		return s.repo.InsertItems(ctx, tx, items)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.InvoiceDetail{}, domain.ErrDuplicateNumber
		}
		if db.IsForeignKeyErr(err) {
			return domain.InvoiceDetail{}, domain.ErrClientNotFound
		}
		return domain.InvoiceDetail{}, err
	}

	s.metrics.RecordInvoiceCreated(ctx)
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("client_id", clientID.String()),
		zap.String("total", invoice.Total.String()),
	)

	invoice.Client = client
	return domain.InvoiceDetail{Invoice: invoice, Client: *client, Items: items}, nil
}

// NextNumber suggests the number following the most recently created
// invoice. Only the digits of that number are considered.
func (s *Service) NextNumber(ctx context.Context) (string, error) {
	latest, err := s.repo.LatestNumber(ctx, s.db)
	if err != nil {
		return "", err
	}
	return format.FormatInvoiceNumber(format.DefaultInvoiceNumberTemplate, s.clock.Now(), format.ParseSequence(latest)+1)
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	var filter domain.ListInvoiceFilter
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(strings.ToLower(status))
		if !filter.Status.Valid() {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
	}
	if clientID := strings.TrimSpace(req.ClientID); clientID != "" {
		id, err := parseClientID(clientID)
		if err != nil {
			return domain.ListInvoiceResponse{}, err
		}
		filter.ClientID = id
	}

	pageToken := strings.TrimSpace(req.PageToken)
	if pageToken != "" {
		cursor, err := pagination.DecodeCursor(pageToken)
		if err != nil || cursor.ID == 0 {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidPageToken
		}
	}

	pageSize := pagination.NormalizePageSize(req.PageSize)
	items, err := s.repo.List(ctx, s.db, filter, pagination.Pagination{PageToken: pageToken, PageSize: pageSize})
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(inv *domain.Invoice) pagination.Cursor {
		return pagination.Cursor{ID: inv.ID.Int64(), CreatedAt: inv.CreatedAt}
	})

	invoices := make([]domain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return domain.ListInvoiceResponse{PageInfo: pageInfo, Invoices: invoices}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.InvoiceDetail, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	return s.loadDetail(ctx, invoiceID)
}

// UpdateStatus moves an invoice to any of the known statuses. Transitions
// are not restricted; an invoice may go back from paid to draft.
func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (domain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Invoice{}, err
	}
	next := domain.Status(strings.ToLower(strings.TrimSpace(status)))
	if !next.Valid() {
		return domain.Invoice{}, domain.ErrInvalidStatus
	}

	existing, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if existing == nil {
		return domain.Invoice{}, domain.ErrNotFound
	}

	if _, err := s.repo.UpdateStatus(ctx, s.db, invoiceID, next); err != nil {
		return domain.Invoice{}, err
	}

	previous := existing.Status
	existing.Status = next
	existing.UpdatedAt = s.clock.Now()

	s.metrics.RecordInvoiceStatus(ctx, string(next))
	s.log.Info("invoice status updated",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
	)
	return *existing, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	invoiceID, err := parseID(id)
	if err != nil {
		return err
	}

	var rows int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = s.repo.Delete(ctx, tx, invoiceID)
		return err
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	s.log.Info("invoice deleted", zap.String("invoice_id", invoiceID.String()))
	return nil
}

// Quote prices an invoice with the active schedule without storing anything.
func (s *Service) Quote(ctx context.Context, input pricing.Input) (pricing.Result, error) {
	if input.ProtocolCount < 0 || input.OnsiteVisits < 0 || input.RemoteVisits < 0 {
		return pricing.Result{}, domain.ErrInvalidCount
	}
	for _, item := range input.LineItems {
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return pricing.Result{}, domain.ErrInvalidItem
		}
	}
	s.metrics.RecordQuote(ctx, "api")
	return s.pricing.Schedule().ComputeInvoiceTotals(input), nil
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	clients, err := s.clientRepo.Count(ctx, s.db)
	if err != nil {
		return domain.Stats{}, err
	}
	rows, err := s.repo.AggregateByStatus(ctx, s.db)
	if err != nil {
		return domain.Stats{}, err
	}

	stats := domain.Stats{
		TotalClients: clients,
		ByStatus:     make(map[domain.Status]domain.StatusStats, len(domain.Statuses)),
	}
	for _, status := range domain.Statuses {
		stats.ByStatus[status] = domain.StatusStats{Total: decimal.Zero}
	}
	for _, row := range rows {
		stats.TotalInvoices += row.Count
		stats.ByStatus[row.Status] = domain.StatusStats{Count: row.Count, Total: row.Total}
	}
	return stats, nil
}

func (s *Service) RenderHTML(ctx context.Context, id string) ([]byte, error) {
	if s.renderer == nil {
		return nil, domain.ErrRendererMissing
	}
	doc, err := s.document(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderHTML(doc)
}

func (s *Service) RenderPDF(ctx context.Context, id string) (domain.File, error) {
	if s.pdf == nil {
		return domain.File{}, domain.ErrRendererMissing
	}
	doc, err := s.document(ctx, id)
	if err != nil {
		return domain.File{}, err
	}
	body, err := s.pdf.GenerateInvoice(ctx, doc)
	if err != nil {
		s.log.Error("failed to generate invoice pdf",
			zap.String("invoice_id", doc.Invoice.ID.String()),
			zap.Error(err),
		)
		return domain.File{}, err
	}
	return domain.File{
		Name:        format.PDFFileName(doc.Invoice.InvoiceNumber),
		ContentType: "application/pdf",
		Body:        body,
	}, nil
}

func (s *Service) document(ctx context.Context, id string) (domain.Document, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return domain.Document{}, err
	}
	detail, err := s.loadDetail(ctx, invoiceID)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{InvoiceDetail: detail, Company: s.pricing.Company()}, nil
}

func (s *Service) loadDetail(ctx context.Context, id snowflake.ID) (domain.InvoiceDetail, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}
	if invoice == nil {
		return domain.InvoiceDetail{}, domain.ErrNotFound
	}
	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return domain.InvoiceDetail{}, err
	}

	detail := domain.InvoiceDetail{Invoice: *invoice, Items: items}
	if invoice.Client != nil {
		detail.Client = *invoice.Client
	}
	return detail, nil
}

// buildInput validates the billable quantities of a request.
func buildInput(protocols, onsite, remote int, implementation bool, items []domain.ItemInput) (pricing.Input, error) {
	if protocols < 0 || onsite < 0 || remote < 0 {
		return pricing.Input{}, domain.ErrInvalidCount
	}
	input := pricing.Input{
		ProtocolCount:            protocols,
		OnsiteVisits:             onsite,
		RemoteVisits:             remote,
		IncludeImplementationFee: implementation,
		LineItems:                make([]pricing.LineItem, 0, len(items)),
	}
	for _, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return pricing.Input{}, domain.ErrInvalidItem
		}
		if item.Quantity.IsNegative() || item.UnitPrice.IsNegative() {
			return pricing.Input{}, domain.ErrInvalidItem
		}
		input.LineItems = append(input.LineItems, pricing.LineItem{Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}
	return input, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseClientID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidClient
	}
	return id, nil
}
