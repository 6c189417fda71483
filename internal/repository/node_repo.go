package repository

import (
	"context"
	"time"

	"catalog/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

// nodeMutableColumns are overwritten on every upsert. The key columns never change.
var nodeMutableColumns = []string{
	"parent_id", "level", "type", "title", "order_number",
	"route", "path", "icon", "product_code", "is_active",
	"updated_at", "deleted_at",
}

type NodeRepository interface {
	Upsert(ctx context.Context, nodes []model.Node) error
	SoftDeleteMissing(ctx context.Context, scopeCode, kind string, keep []model.NodeID, at time.Time) (int64, error)
	ListActive(ctx context.Context, scopeCode, kind string) ([]model.Node, error)
	CountActive(ctx context.Context, scopeCode, kind string) (int64, error)
	ExistingIDs(ctx context.Context, scopeCode, kind string, ids []model.NodeID) ([]model.NodeID, error)
}

type nodeRepository struct {
	db *gorm.DB
}

func NewNodeRepository(db *gorm.DB) NodeRepository {
	return &nodeRepository{db: db}
}

// Upsert writes nodes keyed by (scope_code, kind, id). A soft-deleted row that reappears upstream is revived.
func (r *nodeRepository) Upsert(ctx context.Context, nodes []model.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope_code"}, {Name: "kind"}, {Name: "id"}},
			DoUpdates: clause.AssignmentColumns(nodeMutableColumns),
		}).
		CreateInBatches(&nodes, upsertBatchSize).Error
}

// SoftDeleteMissing retires every active node of the scope whose id is not in keep. The ids
// to retire are resolved first and updated in batches, so no statement binds more than
// upsertBatchSize ids however large the snapshot is.
func (r *nodeRepository) SoftDeleteMissing(ctx context.Context, scopeCode, kind string, keep []model.NodeID, at time.Time) (int64, error) {
	db := GetDB(ctx, r.db)

	var active []model.NodeID
	if err := db.Model(&model.Node{}).
		Where("scope_code = ? AND kind = ?", scopeCode, kind).
		Pluck("id", &active).Error; err != nil {
		return 0, err
	}

	kept := make(map[model.NodeID]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	stale := make([]model.NodeID, 0)
	for _, id := range active {
		if _, ok := kept[id]; !ok {
			stale = append(stale, id)
		}
	}

	var deleted int64
	for start := 0; start < len(stale); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(stale))
		result := db.Model(&model.Node{}).
			Where("scope_code = ? AND kind = ? AND id IN ?", scopeCode, kind, stale[start:end]).
			Updates(map[string]interface{}{
				"deleted_at": at,
				"is_active":  false,
			})
		if result.Error != nil {
			return deleted, result.Error
		}
		deleted += result.RowsAffected
	}
	return deleted, nil
}

func (r *nodeRepository) ListActive(ctx context.Context, scopeCode, kind string) ([]model.Node, error) {
	var nodes []model.Node
	err := GetDB(ctx, r.db).
		Where("scope_code = ? AND kind = ?", scopeCode, kind).
		Order("level asc, order_number asc, title asc, id asc").
		Find(&nodes).Error
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *nodeRepository) CountActive(ctx context.Context, scopeCode, kind string) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Node{}).
		Where("scope_code = ? AND kind = ?", scopeCode, kind).
		Count(&total).Error
	return total, err
}

func (r *nodeRepository) ExistingIDs(ctx context.Context, scopeCode, kind string, ids []model.NodeID) ([]model.NodeID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []model.NodeID
	err := GetDB(ctx, r.db).Model(&model.Node{}).
		Where("scope_code = ? AND kind = ? AND id IN ?", scopeCode, kind, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}
