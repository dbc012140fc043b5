package inventory

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/ladleworks/ladle/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Snapshot(ctx context.Context, filter SnapshotFilter) ([]Line, error)
	AdjustStock(ctx context.Context, branchID, ingredientID int64, delta float64) (float64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates inventory reads and manual adjustments.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// Snapshot returns stock lines for the filter. Fetch failures surface
// verbatim; the caller decides whether to retry.
func (s *Service) Snapshot(ctx context.Context, filter SnapshotFilter) ([]Line, error) {
	return s.repo.Snapshot(ctx, filter)
}

// Adjust applies an additive delta to one stock line.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (float64, error) {
	if input.BranchID == 0 || input.IngredientID == 0 {
		return 0, fmt.Errorf("inventory: branch and ingredient required")
	}
	if math.Abs(input.Delta) < 1e-9 {
		return 0, ErrInvalidDelta
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return 0, fmt.Errorf("inventory: invalid ref id: %w", err)
		}
	}
	result, err := s.repo.AdjustStock(ctx, input.BranchID, input.IngredientID, input.Delta)
	if err != nil {
		return 0, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:ADJUST",
			Entity:   "inventory_level",
			EntityID: fmt.Sprintf("%d:%d", input.BranchID, input.IngredientID),
			Meta: map[string]any{
				"branch_id":     input.BranchID,
				"ingredient_id": input.IngredientID,
				"delta":         input.Delta,
				"reason":        input.Reason,
				"ref_module":    input.RefModule,
				"ref_id":        input.RefID,
			},
		})
	}
	return result, nil
}
