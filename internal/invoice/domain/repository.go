package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/invoicer/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status   Status
	ClientID snowflake.ID
}

// StatusAggregate is one row of the per-status dashboard rollup.
type StatusAggregate struct {
	Status Status
	Count  int64
	Total  decimal.Decimal
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	InsertItems(ctx context.Context, db *gorm.DB, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]InvoiceItem, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	LatestNumber(ctx context.Context, db *gorm.DB) (string, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error)
	AggregateByStatus(ctx context.Context, db *gorm.DB) ([]StatusAggregate, error)
}
