package service

import (
	"context"
	"time"

	"posledger/internal/dto"
	"posledger/internal/repository"

	"github.com/google/uuid"
)

// AuditService is read-only: audit records are written by the mutating
// services inside their own transactions.
type AuditService interface {
	List(ctx context.Context, businessID uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) List(ctx context.Context, businessID uuid.UUID, filter dto.AuditFilter) (*dto.AuditListResponse, error) {
	records, total, err := s.repo.List(ctx, businessID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.AuditRecordResponse{
			ID:         rec.ID.String(),
			ActorID:    rec.ActorID.String(),
			Operation:  rec.Operation,
			EntityType: rec.EntityType,
			EntityIDs:  rec.EntityIDs,
			CreatedAt:  rec.CreatedAt.Format(time.RFC3339),
		})
	}
	return &dto.AuditListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}
