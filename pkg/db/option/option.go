package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/invoicer/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption decorates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ   Operator = "="
	GTE  Operator = ">="
	LTE  Operator = "<="
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single WHERE condition. Field must be a trusted column name.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return db.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
	})
}

// likeEscaper escapes LIKE wildcards with '!', which needs no quoting in any
// supported dialect.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ApplyContains matches rows whose field contains value literally. Field must
// be a trusted column expression.
func ApplyContains(field, value string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(fmt.Sprintf("%s LIKE ? ESCAPE '!'", field), "%"+likeEscaper.Replace(value)+"%")
	})
}

// ApplyPagination seeks past the cursor in (created_at desc, id desc) order and
// fetches one row beyond the page so callers can tell whether more remain.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = pagination.DefaultPageSize
		}
		if page.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor.ID != 0 {
				db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
					cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
			}
		}
		return db.Limit(size + 1)
	})
}
