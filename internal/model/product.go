package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Package status values
const (
	PackageStatusActive   = "active"
	PackageStatusInactive = "inactive"
)

// Product is a sellable catalog product. Its Code scopes packages, hierarchy nodes and matrix rows.
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Package is owned by exactly one product. The matrix only reads it.
type Package struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ProductCode    string          `gorm:"type:varchar(50);not null;index" json:"product_code"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Status         string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	OrderNumber    int             `gorm:"type:int;not null;default:0" json:"order_number"`
	Price          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	DurationMonths int             `gorm:"type:int" json:"duration_months"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
