package repository

import (
	"context"

	"catalog/internal/model"
	"catalog/pkg/pagination"

	"gorm.io/gorm"
)

type SyncRunRepository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	ListByScope(ctx context.Context, scopeCode string, page, limit int) ([]model.SyncRun, int64, error)
}

type syncRunRepository struct {
	db *gorm.DB
}

func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepository{db: db}
}

// Create always writes through the root connection; a run must survive the rollback of the sync it describes.
func (r *syncRunRepository) Create(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepository) ListByScope(ctx context.Context, scopeCode string, page, limit int) ([]model.SyncRun, int64, error) {
	var runs []model.SyncRun
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SyncRun{}).Where("scope_code = ?", scopeCode).Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	p := pagination.New(page, limit)
	if err := db.Order("started_at desc").Offset(p.Offset()).Limit(p.Limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}

	return runs, total, nil
}
