package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionMatrixBulkUpsert = "MATRIX_BULK_UPSERT"
	ActionMatrixToggle     = "MATRIX_TOGGLE"
)

// AuditLog tracks who changed which product's matrix, and with what payload
type AuditLog struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Actor       string    `gorm:"type:varchar(100);index" json:"actor"` // JWT subject, empty for service calls
	Action      string    `gorm:"type:varchar(50);not null;index" json:"action"`
	ProductCode string    `gorm:"type:varchar(50);not null;index" json:"product_code"`
	EntityID    string    `gorm:"type:varchar(100)" json:"entity_id"`
	Details     string    `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
