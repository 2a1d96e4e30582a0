package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/invoicer/internal/client/domain"
)

type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusSent, StatusPaid}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid:
		return true
	default:
		return false
	}
}

// Invoice snapshots the unit prices and every computed figure at creation
// time, so later changes to the pricing tables never rewrite history.
type Invoice struct {
	ID                   snowflake.ID         `gorm:"primaryKey" json:"id"`
	ClientID             snowflake.ID         `gorm:"not null;index" json:"client_id"`
	Client               *clientdomain.Client `gorm:"foreignKey:ClientID;constraint:OnDelete:RESTRICT" json:"client,omitempty"`
	InvoiceNumber        string               `gorm:"type:varchar(64);not null;uniqueIndex" json:"invoice_number"`
	Date                 string               `gorm:"type:varchar(10);not null" json:"date"`
	Period               string               `gorm:"not null;default:''" json:"period"`
	ProtocolCount        int                  `gorm:"not null;default:0" json:"protocol_count"`
	ProtocolUnitPrice    decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"protocol_unit_price"`
	ProtocolTotal        decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"protocol_total"`
	OnsiteVisits         int                  `gorm:"not null;default:0" json:"onsite_visits"`
	OnsiteUnitPrice      decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"onsite_unit_price"`
	OnsiteTotal          decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"onsite_total"`
	RemoteVisits         int                  `gorm:"not null;default:0" json:"remote_visits"`
	RemoteUnitPrice      decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"remote_unit_price"`
	RemoteTotal          decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"remote_total"`
	VisitDiscountPercent decimal.Decimal      `gorm:"type:numeric(7,4);not null;default:0" json:"visit_discount_percent"`
	VisitDiscountAmount  decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"visit_discount_amount"`
	ImplementationFee    decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"implementation_fee"`
	LineItemsTotal       decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"line_items_total"`
	Subtotal             decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"subtotal"`
	DiscountAmount       decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"discount_amount"`
	Total                decimal.Decimal      `gorm:"type:decimal(38,10);not null;default:0" json:"total"`
	Notes                string               `gorm:"not null;default:''" json:"notes"`
	Status               Status               `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	Items                []InvoiceItem        `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt            time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt            time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

type InvoiceItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Description string          `gorm:"not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(38,10);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(38,10);not null" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:decimal(38,10);not null" json:"total"`
	SortOrder   int             `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }
