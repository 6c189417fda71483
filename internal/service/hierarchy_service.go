package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"catalog/internal/hierarchy"
	"catalog/internal/model"
	"catalog/internal/repository"
	"catalog/internal/upstream"

	"go.uber.org/zap"
)

// HierarchySource is the upstream source of truth for menus and features.
type HierarchySource interface {
	FetchNodes(ctx context.Context, kind, productCode string) ([]upstream.Node, error)
}

// --- DTOs ---

type SyncResult struct {
	ProductCode string `json:"product_code"`
	Kind        string `json:"kind"`
	Fetched     int    `json:"fetched"`
	Count       int    `json:"count"`
	Deleted     int    `json:"deleted"`
	Levels      int    `json:"levels"`
}

type NodeResponse struct {
	ID          string          `json:"id"`
	ParentID    *string         `json:"parent_id"`
	Level       int             `json:"level"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	OrderNumber int             `json:"order_number"`
	Route       string          `json:"route,omitempty"`
	Path        string          `json:"path,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	ProductCode string          `json:"product_code,omitempty"`
	IsActive    bool            `json:"is_active"`
	Children    []*NodeResponse `json:"children"`
}

type HierarchyResponse struct {
	Product ProductResponse `json:"product"`
	Kind    string          `json:"kind"`
	Count   int             `json:"count"`
	Synced  bool            `json:"synced"`
	Warning string          `json:"warning,omitempty"`
	Items   []*NodeResponse `json:"items"`
}

type SyncRunResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Fetched    int    `json:"fetched"`
	Upserted   int    `json:"upserted"`
	Deleted    int    `json:"deleted"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

// --- Interface ---

type HierarchyService interface {
	Sync(ctx context.Context, codeOrID, kind string) (*SyncResult, error)
	GetTree(ctx context.Context, codeOrID, kind string, refresh bool) (*HierarchyResponse, error)
	ListSyncRuns(ctx context.Context, codeOrID string, page, limit int) ([]SyncRunResponse, int64, error)
}

type hierarchyService struct {
	productRepo repository.ProductRepository
	nodeRepo    repository.NodeRepository
	runRepo     repository.SyncRunRepository
	txManager   repository.TransactionManager
	source      HierarchySource
	cache       Cache
	events      EventPublisher
	maxDepth    int
	locks       *keyedMutex
	logger      *zap.Logger
}

type HierarchyDeps struct {
	Products  repository.ProductRepository
	Nodes     repository.NodeRepository
	SyncRuns  repository.SyncRunRepository
	TxManager repository.TransactionManager
	Source    HierarchySource
	Cache     Cache          // optional
	Events    EventPublisher // optional
	MaxDepth  int
	Logger    *zap.Logger
}

func NewHierarchyService(deps HierarchyDeps) HierarchyService {
	if deps.MaxDepth < 1 {
		deps.MaxDepth = hierarchy.DefaultMaxDepth
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &hierarchyService{
		productRepo: deps.Products,
		nodeRepo:    deps.Nodes,
		runRepo:     deps.SyncRuns,
		txManager:   deps.TxManager,
		source:      deps.Source,
		cache:       deps.Cache,
		events:      deps.Events,
		maxDepth:    deps.MaxDepth,
		locks:       newKeyedMutex(),
		logger:      deps.Logger.Named("hierarchy"),
	}
}

// --- Implementation ---

func (s *hierarchyService) Sync(ctx context.Context, codeOrID, kind string) (*SyncResult, error) {
	if !validKind(kind) {
		return nil, validationFailed(fmt.Sprintf("unknown hierarchy kind '%s'", kind), nil)
	}
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, err
	}
	return s.syncScope(ctx, product.Code, kind)
}

// syncScope mirrors one upstream snapshot. Nothing local changes unless the fetch succeeds,
// and all levels plus the reconciliation commit in a single transaction.
func (s *hierarchyService) syncScope(ctx context.Context, scope, kind string) (*SyncResult, error) {
	unlock := s.locks.lock(scope + "/" + kind)
	defer unlock()

	log := s.logger.With(zap.String("scope", scope), zap.String("kind", kind))
	run := &model.SyncRun{ScopeCode: scope, Kind: kind, StartedAt: time.Now()}

	fetched, err := s.source.FetchNodes(ctx, kind, scope)
	if err != nil {
		log.Error("upstream fetch failed", zap.Error(err))
		s.finishRun(ctx, run, err)
		return nil, upstreamUnavailable(err)
	}
	run.Fetched = len(fetched)
	if len(fetched) == 0 {
		log.Warn("upstream returned an empty snapshot, every mirrored node will be soft-deleted")
	}

	rows := s.buildRows(scope, kind, fetched, log)
	byLevel := make(map[int][]model.Node)
	keep := make([]model.NodeID, 0, len(rows))
	for _, row := range rows {
		byLevel[row.Level] = append(byLevel[row.Level], row)
		keep = append(keep, row.ID)
	}
	levels := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	var deleted int64
	now := time.Now()
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Parents always land in an earlier pass than their children.
		for _, lvl := range levels {
			if err := s.nodeRepo.Upsert(txCtx, byLevel[lvl]); err != nil {
				return fmt.Errorf("upsert level %d: %w", lvl, err)
			}
		}
		n, err := s.nodeRepo.SoftDeleteMissing(txCtx, scope, kind, keep, now)
		if err != nil {
			return fmt.Errorf("reconcile deletions: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		log.Error("hierarchy sync rolled back", zap.Error(err))
		s.finishRun(ctx, run, err)
		return nil, internal("failed to apply hierarchy snapshot", err)
	}

	run.Upserted = len(rows)
	run.Deleted = int(deleted)
	s.finishRun(ctx, run, nil)

	s.invalidate(ctx, scope)
	result := &SyncResult{
		ProductCode: scope,
		Kind:        kind,
		Fetched:     len(fetched),
		Count:       len(rows),
		Deleted:     int(deleted),
		Levels:      len(levels),
	}
	if s.events != nil {
		s.events.Publish(EventHierarchySynced, result)
	}

	log.Info("hierarchy synced",
		zap.Int("fetched", result.Fetched),
		zap.Int("upserted", result.Count),
		zap.Int("deleted", result.Deleted),
		zap.Int("levels", result.Levels),
	)
	return result, nil
}

// buildRows drops nodes without an id, keeps the last occurrence of duplicated ids,
// then resolves levels and normalizes sibling order.
func (s *hierarchyService) buildRows(scope, kind string, fetched []upstream.Node, log *zap.Logger) []model.Node {
	position := make(map[model.NodeID]int, len(fetched))
	unique := make([]upstream.Node, 0, len(fetched))
	skipped, duplicates := 0, 0
	for _, n := range fetched {
		n.ID = model.NodeID(strings.TrimSpace(string(n.ID)))
		if n.ID == "" {
			skipped++
			continue
		}
		if idx, seen := position[n.ID]; seen {
			unique[idx] = n
			duplicates++
			continue
		}
		position[n.ID] = len(unique)
		unique = append(unique, n)
	}
	if skipped > 0 || duplicates > 0 {
		log.Warn("upstream snapshot needed cleanup", zap.Int("without_id", skipped), zap.Int("duplicates", duplicates))
	}

	entries := make([]hierarchy.Entry, len(unique))
	for i, n := range unique {
		entries[i] = hierarchy.Entry{
			ID:          n.ID,
			ParentID:    n.ParentID,
			ProductCode: n.ProductCode,
			Title:       n.DisplayTitle(),
			OrderNumber: n.SuppliedOrder(),
		}
	}
	placements := hierarchy.Resolve(entries, s.maxDepth)
	normalized := hierarchy.Normalize(entries, hierarchy.ParentsOf(placements))

	rows := make([]model.Node, len(unique))
	for i, n := range unique {
		placement := placements[n.ID]
		rows[i] = model.Node{
			ScopeCode:   scope,
			Kind:        kind,
			ID:          n.ID,
			ParentID:    placement.ParentID,
			Level:       placement.Level,
			Type:        nodeType(kind, n.Type, placement.ParentID != nil),
			Title:       n.DisplayTitle(),
			OrderNumber: normalized[i].OrderNumber,
			Route:       n.Route,
			Path:        n.Path,
			Icon:        n.Icon,
			ProductCode: n.ProductCode,
			IsActive:    n.Active(),
		}
	}
	return rows
}

// nodeType keeps a recognized upstream type and otherwise picks the kind's default.
func nodeType(kind, raw string, hasParent bool) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch kind {
	case model.KindMenu:
		switch t {
		case model.NodeTypeGroup, model.NodeTypeModule, model.NodeTypeMenu:
			return t
		}
		return model.NodeTypeMenu
	default:
		switch t {
		case model.NodeTypeFeature, model.NodeTypeSubfeature:
			return t
		}
		if hasParent {
			return model.NodeTypeSubfeature
		}
		return model.NodeTypeFeature
	}
}

func (s *hierarchyService) finishRun(ctx context.Context, run *model.SyncRun, syncErr error) {
	run.FinishedAt = time.Now()
	run.Status = model.SyncStatusSuccess
	if syncErr != nil {
		run.Status = model.SyncStatusFailed
		run.Error = syncErr.Error()
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		s.logger.Warn("failed to record sync run", zap.String("scope", run.ScopeCode), zap.Error(err))
	}
}

func (s *hierarchyService) invalidate(ctx context.Context, scope string) {
	if s.cache == nil {
		return
	}
	if err := invalidateMatrixCache(ctx, s.cache, scope); err != nil {
		s.logger.Warn("failed to invalidate matrix cache", zap.String("scope", scope), zap.Error(err))
	}
}

func (s *hierarchyService) GetTree(ctx context.Context, codeOrID, kind string, refresh bool) (*HierarchyResponse, error) {
	if !validKind(kind) {
		return nil, validationFailed(fmt.Sprintf("unknown hierarchy kind '%s'", kind), nil)
	}
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, err
	}

	res := &HierarchyResponse{Product: toProductResponse(*product), Kind: kind}
	if refresh {
		if _, err := s.syncScope(ctx, product.Code, kind); err != nil {
			return nil, err
		}
		res.Synced = true
	} else {
		count, err := s.nodeRepo.CountActive(ctx, product.Code, kind)
		if err != nil {
			return nil, internal("failed to count mirrored nodes", err)
		}
		if count == 0 {
			// An empty mirror is filled once on read; a failure leaves the read empty but successful.
			if _, err := s.syncScope(ctx, product.Code, kind); err != nil {
				res.Warning = "mirror is empty and the automatic sync failed: " + AsDomainError(err).Message
			} else {
				res.Synced = true
			}
		}
	}

	nodes, err := s.nodeRepo.ListActive(ctx, product.Code, kind)
	if err != nil {
		return nil, internal("failed to load mirrored nodes", err)
	}
	res.Count = len(nodes)
	res.Items = buildTree(nodes)
	return res, nil
}

// buildTree nests rows under their parent. Rows arrive ordered by level, order and title,
// and that order is kept among siblings.
func buildTree(nodes []model.Node) []*NodeResponse {
	byID := make(map[model.NodeID]*NodeResponse, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = toNodeResponse(n)
	}

	roots := make([]*NodeResponse, 0)
	for _, n := range nodes {
		item := byID[n.ID]
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				parent.Children = append(parent.Children, item)
				continue
			}
		}
		roots = append(roots, item)
	}
	return roots
}

func toNodeResponse(n model.Node) *NodeResponse {
	var parent *string
	if n.ParentID != nil {
		p := n.ParentID.String()
		parent = &p
	}
	return &NodeResponse{
		ID:          n.ID.String(),
		ParentID:    parent,
		Level:       n.Level,
		Type:        n.Type,
		Title:       n.Title,
		OrderNumber: n.OrderNumber,
		Route:       n.Route,
		Path:        n.Path,
		Icon:        n.Icon,
		ProductCode: n.ProductCode,
		IsActive:    n.IsActive,
		Children:    make([]*NodeResponse, 0),
	}
}

func (s *hierarchyService) ListSyncRuns(ctx context.Context, codeOrID string, page, limit int) ([]SyncRunResponse, int64, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, 0, err
	}

	runs, total, err := s.runRepo.ListByScope(ctx, product.Code, page, limit)
	if err != nil {
		return nil, 0, internal("failed to load sync runs", err)
	}

	res := make([]SyncRunResponse, 0, len(runs))
	for _, r := range runs {
		res = append(res, SyncRunResponse{
			ID:         r.ID.String(),
			Kind:       r.Kind,
			Status:     r.Status,
			Fetched:    r.Fetched,
			Upserted:   r.Upserted,
			Deleted:    r.Deleted,
			Error:      r.Error,
			StartedAt:  r.StartedAt.Format("2006-01-02 15:04:05"),
			FinishedAt: r.FinishedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}
