package repository

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/invoicer/internal/invoice/domain"
	"github.com/smallbiznis/invoicer/pkg/db/option"
	"github.com/smallbiznis/invoicer/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Omit("Client", "Items").Create(invoice).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoices []domain.Invoice
	err := db.WithContext(ctx).
		Preload("Client").
		Where("id = ?", id).
		Limit(1).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]domain.InvoiceItem, error) {
	var items []domain.InvoiceItem
	err := db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("sort_order asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := db.WithContext(ctx).Model(&domain.Invoice{}).Preload("Client")
	if filter.Status != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "status", Value: filter.Status}).Apply(stmt)
	}
	if filter.ClientID != 0 {
		stmt = option.ApplyOperator(option.Condition{Field: "client_id", Value: filter.ClientID}).Apply(stmt)
	}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) LatestNumber(ctx context.Context, db *gorm.DB) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Order("created_at desc, id desc").
		Limit(1).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status) (int64, error) {
	tx := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("status", status)
	return tx.RowsAffected, tx.Error
}

// Delete removes the invoice and its items. Items are deleted explicitly so
// databases created without the cascading constraint behave the same.
func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	if err := db.WithContext(ctx).Where("invoice_id = ?", id).Delete(&domain.InvoiceItem{}).Error; err != nil {
		return 0, fmt.Errorf("delete invoice items: %w", err)
	}
	tx := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Invoice{})
	return tx.RowsAffected, tx.Error
}

func (r *repo) AggregateByStatus(ctx context.Context, db *gorm.DB) ([]domain.StatusAggregate, error) {
	var rows []domain.StatusAggregate
	err := db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total), 0) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate invoices: %w", err)
	}
	return rows, nil
}
