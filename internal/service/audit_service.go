package service

import (
	"context"

	"catalog/internal/repository"
)

type AuditLogResponse struct {
	ID          string `json:"id"`
	Actor       string `json:"actor"`
	Action      string `json:"action"`
	ProductCode string `json:"product_code"`
	EntityID    string `json:"entity_id"`
	Details     string `json:"details"`
	CreatedAt   string `json:"created_at"`
}

type AuditService interface {
	ListByProduct(ctx context.Context, codeOrID string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	productRepo repository.ProductRepository
	auditRepo   repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(productRepo repository.ProductRepository, auditRepo repository.AuditRepository) AuditService {
	return &auditService{productRepo: productRepo, auditRepo: auditRepo}
}

// ListByProduct returns the matrix change history of one product, newest first
func (s *auditService) ListByProduct(ctx context.Context, codeOrID string, page, limit int) ([]AuditLogResponse, int64, error) {
	product, err := findProduct(ctx, s.productRepo, codeOrID)
	if err != nil {
		return nil, 0, err
	}

	logs, total, err := s.auditRepo.ListByProduct(ctx, product.Code, page, limit)
	if err != nil {
		return nil, 0, internal("failed to load audit logs", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		actor := l.Actor
		if actor == "" {
			actor = "System"
		}

		res = append(res, AuditLogResponse{
			ID:          l.ID.String(),
			Actor:       actor,
			Action:      l.Action,
			ProductCode: l.ProductCode,
			EntityID:    l.EntityID,
			Details:     l.Details,
			CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}

	return res, total, nil
}
