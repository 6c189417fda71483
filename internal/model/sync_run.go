package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncRun records one hierarchy synchronization attempt. It is written outside the
// mirror transaction so failed attempts stay visible.
type SyncRun struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ScopeCode  string    `gorm:"type:varchar(50);not null;index" json:"scope_code"`
	Kind       string    `gorm:"type:varchar(20);not null" json:"kind"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	Fetched    int       `gorm:"type:int;not null" json:"fetched"`
	Upserted   int       `gorm:"type:int;not null" json:"upserted"`
	Deleted    int       `gorm:"type:int;not null" json:"deleted"`
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	StartedAt  time.Time `gorm:"index" json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *SyncRun) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
