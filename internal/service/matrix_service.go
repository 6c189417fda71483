package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"catalog/internal/model"
	"catalog/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// --- DTOs ---

type MatrixChange struct {
	ItemType  string       `json:"item_type" binding:"required"`
	ItemID    model.NodeID `json:"item_id" binding:"required"`
	PackageID uint         `json:"package_id" binding:"required"`
	Enabled   *bool        `json:"enabled" binding:"required"`
}

type BulkUpsertRequest struct {
	Changes []MatrixChange `json:"changes" binding:"required,min=1,dive"`
}

type PackageResponse struct {
	ID             uint            `json:"id"`
	ProductCode    string          `json:"product_code"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	OrderNumber    int             `json:"order_number"`
	Price          decimal.Decimal `json:"price"`
	DurationMonths int             `json:"duration_months"`
}

type MatrixItemResponse struct {
	ID          string  `json:"id"`
	ParentID    *string `json:"parent_id"`
	Level       int     `json:"level"`
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	OrderNumber int     `json:"order_number"`
	IsActive    bool    `json:"is_active"`
}

type MatrixCellResponse struct {
	ProductCode string `json:"product_code"`
	PackageID   uint   `json:"package_id"`
	ItemType    string `json:"item_type"`
	ItemID      string `json:"item_id"`
	Enabled     bool   `json:"enabled"`
}

type MatrixAggregate struct {
	Product  ProductResponse      `json:"product"`
	Packages []PackageResponse    `json:"packages"`
	Features []MatrixItemResponse `json:"features"`
	Menus    []MatrixItemResponse `json:"menus"`
	Matrix   []MatrixCellResponse `json:"matrix"`
}

type PackageItemsResponse struct {
	ProductCode string   `json:"product_code"`
	PackageID   uint     `json:"package_id"`
	Features    []string `json:"features"`
	Menus       []string `json:"menus"`
}

// --- Interface ---

type MatrixService interface {
	Aggregate(ctx context.Context, codeOrID string) (*MatrixAggregate, error)
	BulkUpsert(ctx context.Context, actor, codeOrID string, req BulkUpsertRequest) (int, error)
	Toggle(ctx context.Context, actor, codeOrID string, change MatrixChange) (*MatrixCellResponse, error)
	PackageItems(ctx context.Context, codeOrID string, packageID uint) (*PackageItemsResponse, error)
}

type matrixService struct {
	productRepo repository.ProductRepository
	packageRepo repository.PackageRepository
	nodeRepo    repository.NodeRepository
	matrixRepo  repository.MatrixRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	cache       Cache
	events      EventPublisher
	logger      *zap.Logger
}

type MatrixDeps struct {
	Products  repository.ProductRepository
	Packages  repository.PackageRepository
	Nodes     repository.NodeRepository
	Matrix    repository.MatrixRepository
	Audit     repository.AuditRepository
	TxManager repository.TransactionManager
	Cache     Cache          // optional
	Events    EventPublisher // optional
	Logger    *zap.Logger
}

func NewMatrixService(deps MatrixDeps) MatrixService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &matrixService{
		productRepo: deps.Products,
		packageRepo: deps.Packages,
		nodeRepo:    deps.Nodes,
		matrixRepo:  deps.Matrix,
		auditRepo:   deps.Audit,
		txManager:   deps.TxManager,
		cache:       deps.Cache,
		events:      deps.Events,
		logger:      deps.Logger.Named("matrix"),
	}
}

// --- Implementation ---

// Aggregate is a pure read. Every package is listed whatever its status; matrix rows are
// only the cells ever written, absent cells read as disabled.
func (s *matrixService) Aggregate(ctx context.Context, codeOrID string) (*MatrixAggregate, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, err
	}

	version, cacheable := s.cacheVersion(ctx, product.Code)
	if cacheable {
		if cached, ok := s.cachedAggregate(ctx, product.Code, version); ok {
			return cached, nil
		}
	}

	packages, err := s.packageRepo.ListByProduct(ctx, product.Code)
	if err != nil {
		return nil, internal("failed to load packages", err)
	}
	features, err := s.nodeRepo.ListActive(ctx, product.Code, model.KindFeature)
	if err != nil {
		return nil, internal("failed to load features", err)
	}
	menus, err := s.nodeRepo.ListActive(ctx, product.Code, model.KindMenu)
	if err != nil {
		return nil, internal("failed to load menus", err)
	}
	entries, err := s.matrixRepo.ListByProduct(ctx, product.Code)
	if err != nil {
		return nil, internal("failed to load matrix", err)
	}

	agg := &MatrixAggregate{
		Product:  toProductResponse(*product),
		Packages: make([]PackageResponse, 0, len(packages)),
		Features: toMatrixItems(features),
		Menus:    toMatrixItems(menus),
		Matrix:   make([]MatrixCellResponse, 0, len(entries)),
	}
	for _, p := range packages {
		agg.Packages = append(agg.Packages, PackageResponse{
			ID:             p.ID,
			ProductCode:    p.ProductCode,
			Name:           p.Name,
			Status:         p.Status,
			OrderNumber:    p.OrderNumber,
			Price:          p.Price,
			DurationMonths: p.DurationMonths,
		})
	}
	for _, e := range entries {
		agg.Matrix = append(agg.Matrix, toCellResponse(e))
	}

	if cacheable {
		s.storeAggregate(ctx, product.Code, version, agg)
	}
	return agg, nil
}

// cacheVersion reads the product's cache version. It must be read before the DB so a write
// committed in between bumps it past the payload being built.
func (s *matrixService) cacheVersion(ctx context.Context, code string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	version, err := matrixCacheVersion(ctx, s.cache, code)
	if err != nil {
		s.logger.Warn("matrix cache version read failed", zap.String("product_code", code), zap.Error(err))
		return 0, false
	}
	return version, true
}

func (s *matrixService) cachedAggregate(ctx context.Context, code string, version int64) (*MatrixAggregate, bool) {
	data, ok, err := s.cache.Get(ctx, matrixCacheKey(code, version))
	if err != nil {
		s.logger.Warn("matrix cache read failed", zap.String("product_code", code), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var agg MatrixAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		s.logger.Warn("discarding undecodable cached matrix", zap.String("product_code", code), zap.Error(err))
		return nil, false
	}
	return &agg, true
}

func (s *matrixService) storeAggregate(ctx context.Context, code string, version int64, agg *MatrixAggregate) {
	data, err := json.Marshal(agg)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, matrixCacheKey(code, version), data); err != nil {
		s.logger.Warn("matrix cache write failed", zap.String("product_code", code), zap.Error(err))
	}
}

func (s *matrixService) BulkUpsert(ctx context.Context, actor, codeOrID string, req BulkUpsertRequest) (int, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return 0, err
	}
	if len(req.Changes) == 0 {
		return 0, validationFailed("changes must not be empty", nil)
	}

	details, err := s.validate(ctx, product.Code, req.Changes)
	if err != nil {
		return 0, err
	}
	if !details.empty() {
		return 0, validationFailed(describe(details), details)
	}

	entries := toEntries(product.Code, req.Changes)
	payload, _ := json.Marshal(req.Changes)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.matrixRepo.Upsert(txCtx, entries); err != nil {
			return fmt.Errorf("failed to upsert matrix: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			Actor:       actor,
			Action:      model.ActionMatrixBulkUpsert,
			ProductCode: product.Code,
			EntityID:    fmt.Sprintf("%d cells", len(entries)),
			Details:     string(payload),
		})
	})
	if err != nil {
		return 0, internal("failed to save matrix changes", err)
	}

	s.afterWrite(ctx, product.Code, actor, len(entries))
	return len(entries), nil
}

// Toggle is BulkUpsert narrowed to one cell. An item missing from the mirror is not-found here.
func (s *matrixService) Toggle(ctx context.Context, actor, codeOrID string, change MatrixChange) (*MatrixCellResponse, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, err
	}

	details, err := s.validate(ctx, product.Code, []MatrixChange{change})
	if err != nil {
		return nil, err
	}
	if len(details.InvalidPackageIDs) > 0 || len(details.InvalidItemTypes) > 0 {
		return nil, validationFailed(describe(details), details)
	}
	if len(details.InvalidItemIDs) > 0 {
		return nil, notFound(fmt.Sprintf("%s '%s' not found for product %s", change.ItemType, change.ItemID, product.Code))
	}

	entries := toEntries(product.Code, []MatrixChange{change})
	payload, _ := json.Marshal(change)
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.matrixRepo.Upsert(txCtx, entries); err != nil {
			return fmt.Errorf("failed to upsert matrix cell: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			Actor:       actor,
			Action:      model.ActionMatrixToggle,
			ProductCode: product.Code,
			EntityID:    fmt.Sprintf("%d/%s/%s", change.PackageID, change.ItemType, change.ItemID),
			Details:     string(payload),
		})
	})
	if err != nil {
		return nil, internal("failed to save matrix cell", err)
	}

	s.afterWrite(ctx, product.Code, actor, 1)

	stored, err := s.matrixRepo.Find(ctx, entries[0].Key())
	if err != nil {
		return nil, internal("failed to read back matrix cell", err)
	}
	cell := toCellResponse(*stored)
	return &cell, nil
}

// validate checks item types, package ownership and item existence for the whole batch
// before anything is written.
func (s *matrixService) validate(ctx context.Context, productCode string, changes []MatrixChange) (ValidationDetails, error) {
	var details ValidationDetails
	badTypes := make(map[string]bool)
	badItems := make(map[string]bool)
	packageIDs := make(map[uint]bool)
	itemsByType := map[string]map[model.NodeID]bool{
		model.ItemTypeFeature: {},
		model.ItemTypeMenu:    {},
	}

	for _, c := range changes {
		if !model.ValidItemType(c.ItemType) {
			badTypes[c.ItemType] = true
		} else if c.ItemID == "" {
			badItems[""] = true
		} else {
			itemsByType[c.ItemType][c.ItemID] = true
		}
		packageIDs[c.PackageID] = true
	}

	ids := make([]uint, 0, len(packageIDs))
	for id := range packageIDs {
		ids = append(ids, id)
	}
	owned, err := s.packageRepo.OwnedIDs(ctx, productCode, ids)
	if err != nil {
		return details, internal("failed to verify package ownership", err)
	}
	ownedSet := make(map[uint]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}
	for _, id := range ids {
		if !ownedSet[id] {
			details.InvalidPackageIDs = append(details.InvalidPackageIDs, id)
		}
	}
	sort.Slice(details.InvalidPackageIDs, func(i, j int) bool {
		return details.InvalidPackageIDs[i] < details.InvalidPackageIDs[j]
	})

	for itemType, wanted := range itemsByType {
		if len(wanted) == 0 {
			continue
		}
		requested := make([]model.NodeID, 0, len(wanted))
		for id := range wanted {
			requested = append(requested, id)
		}
		found, err := s.nodeRepo.ExistingIDs(ctx, productCode, itemType, requested)
		if err != nil {
			return details, internal("failed to verify matrix items", err)
		}
		foundSet := make(map[model.NodeID]bool, len(found))
		for _, id := range found {
			foundSet[id] = true
		}
		for _, id := range requested {
			if !foundSet[id] {
				badItems[itemType+":"+string(id)] = true
			}
		}
	}

	for t := range badTypes {
		details.InvalidItemTypes = append(details.InvalidItemTypes, t)
	}
	sort.Strings(details.InvalidItemTypes)
	for id := range badItems {
		details.InvalidItemIDs = append(details.InvalidItemIDs, id)
	}
	sort.Strings(details.InvalidItemIDs)
	return details, nil
}

func describe(d ValidationDetails) string {
	var parts []string
	if len(d.InvalidPackageIDs) > 0 {
		ids := make([]string, 0, len(d.InvalidPackageIDs))
		for _, id := range d.InvalidPackageIDs {
			ids = append(ids, fmt.Sprint(id))
		}
		parts = append(parts, "packages not owned by product: "+strings.Join(ids, ", "))
	}
	if len(d.InvalidItemTypes) > 0 {
		parts = append(parts, `item_type must be "feature" or "menu", got: `+strings.Join(d.InvalidItemTypes, ", "))
	}
	if len(d.InvalidItemIDs) > 0 {
		parts = append(parts, "unknown items: "+strings.Join(d.InvalidItemIDs, ", "))
	}
	return strings.Join(parts, "; ")
}

// toEntries collapses repeated cells so that the last change for a key wins.
func toEntries(productCode string, changes []MatrixChange) []model.MatrixEntry {
	position := make(map[model.MatrixKey]int, len(changes))
	entries := make([]model.MatrixEntry, 0, len(changes))
	for _, c := range changes {
		entry := model.MatrixEntry{
			ProductCode: productCode,
			PackageID:   c.PackageID,
			ItemType:    c.ItemType,
			ItemID:      c.ItemID,
			Enabled:     c.Enabled != nil && *c.Enabled,
		}
		if idx, seen := position[entry.Key()]; seen {
			entries[idx] = entry
			continue
		}
		position[entry.Key()] = len(entries)
		entries = append(entries, entry)
	}
	return entries
}

func (s *matrixService) afterWrite(ctx context.Context, productCode, actor string, count int) {
	if s.cache != nil {
		if err := invalidateMatrixCache(ctx, s.cache, productCode); err != nil {
			s.logger.Warn("failed to invalidate matrix cache", zap.String("product_code", productCode), zap.Error(err))
		}
	}
	if s.events != nil {
		s.events.Publish(EventMatrixUpdated, map[string]interface{}{
			"product_code": productCode,
			"count":        count,
			"actor":        actor,
		})
	}
	s.logger.Info("matrix updated",
		zap.String("product_code", productCode),
		zap.String("actor", actor),
		zap.Int("cells", count),
	)
}

func (s *matrixService) PackageItems(ctx context.Context, codeOrID string, packageID uint) (*PackageItemsResponse, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, err
	}
	if _, err := s.packageRepo.FindOwned(ctx, product.Code, packageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(fmt.Sprintf("package %d not found for product %s", packageID, product.Code))
		}
		return nil, internal("failed to load package", err)
	}

	entries, err := s.matrixRepo.ListEnabledByPackage(ctx, product.Code, packageID)
	if err != nil {
		return nil, internal("failed to load matrix", err)
	}

	res := &PackageItemsResponse{
		ProductCode: product.Code,
		PackageID:   packageID,
		Features:    make([]string, 0),
		Menus:       make([]string, 0),
	}
	for _, e := range entries {
		switch e.ItemType {
		case model.ItemTypeFeature:
			res.Features = append(res.Features, e.ItemID.String())
		case model.ItemTypeMenu:
			res.Menus = append(res.Menus, e.ItemID.String())
		}
	}
	return res, nil
}

// --- Helpers ---

func toMatrixItems(nodes []model.Node) []MatrixItemResponse {
	items := make([]MatrixItemResponse, 0, len(nodes))
	for _, n := range nodes {
		var parent *string
		if n.ParentID != nil {
			p := n.ParentID.String()
			parent = &p
		}
		items = append(items, MatrixItemResponse{
			ID:          n.ID.String(),
			ParentID:    parent,
			Level:       n.Level,
			Type:        n.Type,
			Title:       n.Title,
			OrderNumber: n.OrderNumber,
			IsActive:    n.IsActive,
		})
	}
	return items
}

func toCellResponse(e model.MatrixEntry) MatrixCellResponse {
	return MatrixCellResponse{
		ProductCode: e.ProductCode,
		PackageID:   e.PackageID,
		ItemType:    e.ItemType,
		ItemID:      e.ItemID.String(),
		Enabled:     e.Enabled,
	}
}
