package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Client struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name      string            `gorm:"not null" json:"name"`
	Address   string            `gorm:"not null;default:''" json:"address"`
	Phone     string            `gorm:"not null;default:''" json:"phone"`
	Email     string            `gorm:"not null;default:''" json:"email"`
	TaxID     string            `gorm:"column:tax_id;not null;default:''" json:"tax_id"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }
