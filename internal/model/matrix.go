package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Matrix item types
const (
	ItemTypeFeature = "feature"
	ItemTypeMenu    = "menu"
)

// ValidItemType reports whether t is exactly one of the matrix item types.
func ValidItemType(t string) bool {
	return t == ItemTypeFeature || t == ItemTypeMenu
}

// MatrixEntry is one explicitly written authorization cell. Cells without a row are disabled.
type MatrixEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ProductCode string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_matrix_cell,priority:1" json:"product_code"`
	PackageID   uint      `gorm:"not null;uniqueIndex:uk_matrix_cell,priority:2;index" json:"package_id"`
	ItemType    string    `gorm:"type:varchar(20);not null;uniqueIndex:uk_matrix_cell,priority:3" json:"item_type"`
	ItemID      NodeID    `gorm:"type:varchar(100);not null;uniqueIndex:uk_matrix_cell,priority:4" json:"item_id"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MatrixEntry) TableName() string {
	return "package_matrix_entries"
}

func (e *MatrixEntry) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// MatrixKey is the natural key of a matrix cell.
type MatrixKey struct {
	ProductCode string
	PackageID   uint
	ItemType    string
	ItemID      NodeID
}

func (e MatrixEntry) Key() MatrixKey {
	return MatrixKey{ProductCode: e.ProductCode, PackageID: e.PackageID, ItemType: e.ItemType, ItemID: e.ItemID}
}
