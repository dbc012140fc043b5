package purchasing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ladleworks/ladle/internal/inventory"
	"github.com/ladleworks/ladle/internal/platform/cache"
	"github.com/ladleworks/ladle/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error)
	ListPOs(ctx context.Context, limit, offset int, filters ListFilters) ([]POListItem, int, error)
}

// SnapshotPort reads current stock lines from the inventory module.
type SnapshotPort interface {
	Snapshot(ctx context.Context, filter inventory.SnapshotFilter) ([]inventory.Line, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort guards against double-processing a delivery.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service implements replenishment workflows on top of the repository.
type Service struct {
	repo        RepositoryPort
	snapshots   SnapshotPort
	audit       AuditPort
	idempotency IdempotencyPort
	views       *cache.Views
	previews    singleflight.Group
}

// NewService builds Service.
func NewService(repo RepositoryPort, snapshots SnapshotPort, audit AuditPort, idem IdempotencyPort, views *cache.Views) *Service {
	return &Service{repo: repo, snapshots: snapshots, audit: audit, idempotency: idem, views: views}
}

// PreviewShortages computes the supplier-grouped shortage set for a branch.
// Concurrent previews for the same branch share one snapshot read.
func (s *Service) PreviewShortages(ctx context.Context, branchID int64) ([]ShortageGroup, error) {
	if branchID <= 0 {
		return nil, fmt.Errorf("%w: branch required", ErrValidation)
	}
	result, err, _ := s.previews.Do(strconv.FormatInt(branchID, 10), func() (any, error) {
		lines, err := s.snapshots.Snapshot(ctx, inventory.SnapshotFilter{BranchID: branchID, OnlyShort: true})
		if err != nil {
			return nil, err
		}
		return BuildShortageGroups(lines), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]ShortageGroup), nil
}

// GenerateInput carries the edited drafts submitted for auto-generation.
type GenerateInput struct {
	ActorID int64
	Orders  []Draft
}

// AutoGenerate persists one draft purchase order per submitted supplier
// draft in a single transaction. Validation happens up front so either
// every order is created or none is.
func (s *Service) AutoGenerate(ctx context.Context, input GenerateInput) ([]int64, error) {
	if len(input.Orders) == 0 {
		return nil, ErrEmptyDraft
	}
	for _, draft := range input.Orders {
		if draft.SupplierID <= 0 || draft.BranchID <= 0 {
			return nil, fmt.Errorf("%w: supplier and branch required", ErrValidation)
		}
		if len(draft.Lines) == 0 {
			return nil, ErrEmptyDraft
		}
		for _, line := range draft.Lines {
			if line.IngredientID <= 0 {
				return nil, fmt.Errorf("%w: ingredient required", ErrValidation)
			}
			if line.Quantity <= 0 {
				return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
			}
		}
	}

	// Name, unit and price come from the current snapshot, not the client.
	catalog := make(map[[2]int64]inventory.Line)
	for _, draft := range input.Orders {
		lines, err := s.snapshots.Snapshot(ctx, inventory.SnapshotFilter{BranchID: draft.BranchID})
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			catalog[[2]int64{line.BranchID, line.IngredientID}] = line
		}
	}
	for _, draft := range input.Orders {
		for _, line := range draft.Lines {
			if _, ok := catalog[[2]int64{draft.BranchID, line.IngredientID}]; !ok {
				return nil, fmt.Errorf("%w: ingredient %d not stocked at branch %d", ErrValidation, line.IngredientID, draft.BranchID)
			}
		}
	}

	var ids []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, draft := range input.Orders {
			po := PurchaseOrder{
				Number:     generateNumber("PO"),
				BranchID:   draft.BranchID,
				SupplierID: draft.SupplierID,
				Status:     StatusDraft,
				PODate:     time.Now(),
			}
			id, err := tx.CreatePO(ctx, po)
			if err != nil {
				return err
			}
			for _, line := range draft.Lines {
				item := catalog[[2]int64{draft.BranchID, line.IngredientID}]
				if err := tx.InsertPOLine(ctx, POLine{
					POID:         id,
					IngredientID: line.IngredientID,
					Name:         item.IngredientName,
					Unit:         item.Unit,
					QtyOrdered:   line.Quantity,
					UnitPrice:    item.UnitPrice,
				}); err != nil {
					return err
				}
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_ = s.views.Bump(ctx)
	s.recordAudit(ctx, input.ActorID, "PO:AUTO_GENERATE", 0, map[string]any{"po_ids": ids, "count": len(ids)})
	return ids, nil
}

// CreateItem is one manually entered order line.
type CreateItem struct {
	IngredientName string
	Quantity       float64
	Unit           string
	UnitPrice      float64
}

// CreateInput carries a manually composed purchase order.
type CreateInput struct {
	ActorID              int64
	BranchID             int64
	SupplierID           int64
	ExpectedDeliveryDate time.Time
	Note                 string
	Items                []CreateItem
}

// Create persists a manually composed draft purchase order. Ingredient
// names resolve against the catalog inside the transaction; an unknown
// name fails the whole order.
func (s *Service) Create(ctx context.Context, input CreateInput) (int64, error) {
	if input.BranchID <= 0 || input.SupplierID <= 0 {
		return 0, fmt.Errorf("%w: branch and supplier required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return 0, ErrEmptyDraft
	}
	for _, item := range input.Items {
		if item.IngredientName == "" {
			return 0, fmt.Errorf("%w: ingredient name required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return 0, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}
		if item.UnitPrice < 0 {
			return 0, fmt.Errorf("%w: unit price cannot be negative", ErrValidation)
		}
	}

	var poID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po := PurchaseOrder{
			Number:               generateNumber("PO"),
			BranchID:             input.BranchID,
			SupplierID:           input.SupplierID,
			Status:               StatusDraft,
			PODate:               time.Now(),
			ExpectedDeliveryDate: input.ExpectedDeliveryDate,
			Note:                 input.Note,
		}
		id, err := tx.CreatePO(ctx, po)
		if err != nil {
			return err
		}
		for _, item := range input.Items {
			ingredientID, err := tx.LookupIngredient(ctx, item.IngredientName)
			if err != nil {
				return err
			}
			if err := tx.InsertPOLine(ctx, POLine{
				POID:         id,
				IngredientID: ingredientID,
				Name:         item.IngredientName,
				Unit:         item.Unit,
				QtyOrdered:   item.Quantity,
				UnitPrice:    item.UnitPrice,
			}); err != nil {
				return err
			}
		}
		poID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	_ = s.views.Bump(ctx)
	s.recordAudit(ctx, input.ActorID, "PO:CREATE", poID, map[string]any{"supplier_id": input.SupplierID, "branch_id": input.BranchID})
	return poID, nil
}

// UpdateStatus moves a purchase order along the lifecycle graph. The
// received status is excluded here; a delivery must go through Receive so
// stock lands with the status flip.
func (s *Service) UpdateStatus(ctx context.Context, actorID, poID int64, to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}
	if to == StatusReceived {
		return fmt.Errorf("%w: receiving requires a delivery record", ErrInvalidTransition)
	}
	po, _, err := s.repo.GetPO(ctx, poID)
	if err != nil {
		return err
	}
	if !CanTransition(po.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, po.Status, to)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdatePOStatus(ctx, poID, po.Status, to)
	})
	if err != nil {
		return err
	}
	_ = s.views.Bump(ctx)
	s.recordAudit(ctx, actorID, "PO:"+string(to), poID, map[string]any{"from": po.Status, "to": to})
	return nil
}

// Submit moves a draft to submitted.
func (s *Service) Submit(ctx context.Context, actorID, poID int64) error {
	return s.UpdateStatus(ctx, actorID, poID, StatusSubmitted)
}

// Approve moves a submitted order to approved.
func (s *Service) Approve(ctx context.Context, actorID, poID int64) error {
	return s.UpdateStatus(ctx, actorID, poID, StatusApproved)
}

// Cancel cancels any non-terminal order.
func (s *Service) Cancel(ctx context.Context, actorID, poID int64) error {
	return s.UpdateStatus(ctx, actorID, poID, StatusCancelled)
}

// Receive confirms a delivery for an approved purchase order. Every line's
// stock increment and the status flip commit in one transaction; replays of
// the same delivery are rejected by the idempotency key.
func (s *Service) Receive(ctx context.Context, actorID int64, record ReceivingRecord) error {
	po, lines, err := s.repo.GetPO(ctx, record.POID)
	if err != nil {
		return err
	}
	if po.Status != StatusApproved {
		return fmt.Errorf("%w: only approved orders can be received (status %s)", ErrInvalidTransition, po.Status)
	}
	if len(record.Lines) == 0 {
		return fmt.Errorf("%w: delivery has no lines", ErrValidation)
	}
	known := make(map[int64]POLine, len(lines))
	for _, line := range lines {
		known[line.ID] = line
	}
	for _, receipt := range record.Lines {
		if _, ok := known[receipt.POLineID]; !ok {
			return fmt.Errorf("%w: line %d does not belong to order %d", ErrValidation, receipt.POLineID, record.POID)
		}
		if receipt.QtyReceived < 0 {
			return fmt.Errorf("%w: received quantity cannot be negative", ErrValidation)
		}
	}

	key := uuid.NewSHA1(uuid.Nil, []byte(fmt.Sprintf("PO-RECEIPT:%d", record.POID))).String()
	if s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, "purchasing"); err != nil {
			return err
		}
	}
	now := time.Now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, receipt := range record.Lines {
			line := known[receipt.POLineID]
			if receipt.QtyReceived == 0 {
				continue
			}
			if err := tx.IncrementStock(ctx, po.BranchID, line.IngredientID, receipt.QtyReceived); err != nil {
				return err
			}
		}
		if err := tx.UpdatePOStatus(ctx, record.POID, StatusApproved, StatusReceived); err != nil {
			return err
		}
		return tx.SetReceived(ctx, record.POID, actorID, now)
	})
	if err != nil {
		if s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, key)
		}
		return err
	}
	_ = s.views.Bump(ctx)
	s.recordAudit(ctx, actorID, "PO:RECEIVE", record.POID, map[string]any{"lines": len(record.Lines)})
	return nil
}

// Get returns a purchase order with lines.
func (s *Service) Get(ctx context.Context, poID int64) (PurchaseOrder, []POLine, error) {
	return s.repo.GetPO(ctx, poID)
}

type listView struct {
	Items []POListItem `json:"items"`
	Total int          `json:"total"`
}

// List returns purchase orders through the versioned listing cache.
func (s *Service) List(ctx context.Context, limit, offset int, filters ListFilters) ([]POListItem, int, error) {
	key, err := s.views.BuildKey(ctx, "po:list",
		strconv.Itoa(limit), strconv.Itoa(offset),
		string(filters.Status), strconv.FormatInt(filters.SupplierID, 10),
		strconv.FormatInt(filters.BranchID, 10), filters.Search,
		filters.SortBy, filters.SortDir)
	if err != nil {
		return nil, 0, err
	}
	var view listView
	err = s.views.FetchJSON(ctx, key, &view, func(ctx context.Context) (any, error) {
		items, total, err := s.repo.ListPOs(ctx, limit, offset, filters)
		if err != nil {
			return nil, err
		}
		return listView{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return view.Items, view.Total, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase_order",
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
