package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/invoicer/pkg/db/pagination"
)

type ListClientRequest struct {
	PageToken string
	PageSize  int
	Name      string
}

type ListClientFilter struct {
	Name string
}

type ListClientResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

// ClientInput carries the editable fields for both create and update.
type ClientInput struct {
	Name     string         `json:"name"`
	Address  string         `json:"address"`
	Phone    string         `json:"phone"`
	Email    string         `json:"email"`
	TaxID    string         `json:"tax_id"`
	Metadata map[string]any `json:"metadata"`
}

type Service interface {
	Create(ctx context.Context, req ClientInput) (Client, error)
	Update(ctx context.Context, id string, req ClientInput) (Client, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (Client, error)
	List(ctx context.Context, req ListClientRequest) (ListClientResponse, error)
	Count(ctx context.Context) (int64, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
	ErrHasInvoices      = errors.New("client_has_invoices")
)
