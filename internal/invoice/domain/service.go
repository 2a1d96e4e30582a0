package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicer/internal/client/domain"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/smallbiznis/invoicer/internal/pricing"
	"github.com/smallbiznis/invoicer/pkg/db/pagination"
)

type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	ClientID                 string      `json:"client_id"`
	InvoiceNumber            string      `json:"invoice_number"`
	Date                     string      `json:"date"`
	Period                   string      `json:"period"`
	ProtocolCount            int         `json:"protocol_count"`
	OnsiteVisits             int         `json:"onsite_visits"`
	RemoteVisits             int         `json:"remote_visits"`
	IncludeImplementationFee bool        `json:"include_implementation_fee"`
	Notes                    string      `json:"notes"`
	Items                    []ItemInput `json:"items"`
}

type ListInvoiceRequest struct {
	PageToken string
	PageSize  int
	Status    string
	ClientID  string
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

// InvoiceDetail is an invoice with its client and ordered items.
type InvoiceDetail struct {
	Invoice Invoice             `json:"invoice"`
	Client  clientdomain.Client `json:"client"`
	Items   []InvoiceItem       `json:"items"`
}

type StatusStats struct {
	Count int64           `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type Stats struct {
	TotalClients  int64                  `json:"total_clients"`
	TotalInvoices int64                  `json:"total_invoices"`
	ByStatus      map[Status]StatusStats `json:"by_status"`
}

// File is a rendered artifact ready to stream to a client.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceDetail, error)
	NextNumber(ctx context.Context) (string, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceDetail, error)
	UpdateStatus(ctx context.Context, id string, status string) (Invoice, error)
	Delete(ctx context.Context, id string) error
	Quote(ctx context.Context, input pricing.Input) (pricing.Result, error)
	Stats(ctx context.Context) (Stats, error)
	RenderHTML(ctx context.Context, id string) ([]byte, error)
	RenderPDF(ctx context.Context, id string) (File, error)
}

// PDFGenerator lays out a finished invoice as a PDF document.
type PDFGenerator interface {
	GenerateInvoice(ctx context.Context, doc Document) ([]byte, error)
}

// Document bundles everything printed on an invoice.
type Document struct {
	InvoiceDetail
	Company config.CompanyConfig
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidClient    = errors.New("invalid_client")
	ErrClientNotFound   = errors.New("client_not_found")
	ErrInvalidNumber    = errors.New("invalid_invoice_number")
	ErrDuplicateNumber  = errors.New("duplicate_invoice_number")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidCount     = errors.New("invalid_count")
	ErrInvalidItem      = errors.New("invalid_item")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
	ErrRendererMissing  = errors.New("renderer_not_configured")
)
