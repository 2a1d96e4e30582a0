package repository

import (
	"context"

	"github.com/smallbiznis/invoicer/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a thin generic gorm store keyed by an "id" column.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	// FindOne returns nil, nil when nothing matches.
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	// Update applies the non-zero fields of resource (or a column map) and
	// returns the number of rows touched.
	Update(ctx context.Context, id any, resource any) (int64, error)
	Delete(ctx context.Context, id any) (int64, error)
	Count(ctx context.Context, query *T) (int64, error)
}
