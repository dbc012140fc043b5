package purchasing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ladleworks/ladle/internal/inventory"
	"github.com/ladleworks/ladle/internal/shared"
)

type memoryPORepo struct {
	nextPOID    int64
	nextLineID  int64
	orders      map[int64]PurchaseOrder
	lines       map[int64][]POLine
	stock       map[[2]int64]float64
	ingredients map[string]int64
}

func newMemoryPORepo() *memoryPORepo {
	return &memoryPORepo{
		orders:      make(map[int64]PurchaseOrder),
		lines:       make(map[int64][]POLine),
		stock:       make(map[[2]int64]float64),
		ingredients: make(map[string]int64),
	}
}

func (r *memoryPORepo) clone() *memoryPORepo {
	c := newMemoryPORepo()
	c.nextPOID = r.nextPOID
	c.nextLineID = r.nextLineID
	for id, po := range r.orders {
		c.orders[id] = po
	}
	for id, lines := range r.lines {
		c.lines[id] = append([]POLine(nil), lines...)
	}
	for key, qty := range r.stock {
		c.stock[key] = qty
	}
	for name, id := range r.ingredients {
		c.ingredients[name] = id
	}
	return c
}

func (r *memoryPORepo) restore(from *memoryPORepo) {
	r.nextPOID = from.nextPOID
	r.nextLineID = from.nextLineID
	r.orders = from.orders
	r.lines = from.lines
	r.stock = from.stock
	r.ingredients = from.ingredients
}

// WithTx restores the pre-transaction state when fn fails, mirroring a
// database rollback.
func (r *memoryPORepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	backup := r.clone()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(backup)
		return err
	}
	return nil
}

func (r *memoryPORepo) GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	po, ok := r.orders[id]
	if !ok {
		return PurchaseOrder{}, nil, ErrNotFound
	}
	return po, append([]POLine(nil), r.lines[id]...), nil
}

func (r *memoryPORepo) ListPOs(ctx context.Context, limit, offset int, filters ListFilters) ([]POListItem, int, error) {
	var items []POListItem
	for _, po := range r.orders {
		if filters.Status != "" && po.Status != filters.Status {
			continue
		}
		items = append(items, POListItem{ID: po.ID, Number: po.Number, Status: po.Status, SupplierID: po.SupplierID, BranchID: po.BranchID})
	}
	return items, len(items), nil
}

type memoryTx struct {
	repo *memoryPORepo
}

func (tx *memoryTx) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	tx.repo.nextPOID++
	po.ID = tx.repo.nextPOID
	tx.repo.orders[po.ID] = po
	return po.ID, nil
}

func (tx *memoryTx) InsertPOLine(ctx context.Context, line POLine) error {
	tx.repo.nextLineID++
	line.ID = tx.repo.nextLineID
	tx.repo.lines[line.POID] = append(tx.repo.lines[line.POID], line)
	return nil
}

func (tx *memoryTx) UpdatePOStatus(ctx context.Context, id int64, from, to Status) error {
	po, ok := tx.repo.orders[id]
	if !ok || po.Status != from {
		return ErrInvalidTransition
	}
	po.Status = to
	tx.repo.orders[id] = po
	return nil
}

func (tx *memoryTx) SetReceived(ctx context.Context, id int64, receivedBy int64, receivedAt time.Time) error {
	po := tx.repo.orders[id]
	po.ReceivedDate = &receivedAt
	if receivedBy != 0 {
		po.ReceivedBy = &receivedBy
	}
	tx.repo.orders[id] = po
	return nil
}

func (tx *memoryTx) IncrementStock(ctx context.Context, branchID, ingredientID int64, qty float64) error {
	key := [2]int64{branchID, ingredientID}
	if _, ok := tx.repo.stock[key]; !ok {
		return ErrValidation
	}
	tx.repo.stock[key] += qty
	return nil
}

func (tx *memoryTx) LookupIngredient(ctx context.Context, name string) (int64, error) {
	id, ok := tx.repo.ingredients[name]
	if !ok {
		return 0, ErrValidation
	}
	return id, nil
}

type sliceSnapshots struct {
	lines []inventory.Line
}

func (s *sliceSnapshots) Snapshot(ctx context.Context, filter inventory.SnapshotFilter) ([]inventory.Line, error) {
	var out []inventory.Line
	for _, line := range s.lines {
		if filter.BranchID > 0 && line.BranchID != filter.BranchID {
			continue
		}
		if filter.OnlyShort && !line.BelowReorder() {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

type memoryIdem struct {
	keys map[string]bool
}

func (m *memoryIdem) CheckAndInsert(ctx context.Context, key, module string) error {
	if m.keys == nil {
		m.keys = make(map[string]bool)
	}
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdem) Delete(ctx context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

func newTestService(repo *memoryPORepo) *Service {
	return NewService(repo, &sliceSnapshots{lines: snapshotFixture()}, nil, &memoryIdem{}, nil)
}

func seedApprovedPO(repo *memoryPORepo) (int64, []int64) {
	repo.nextPOID++
	poID := repo.nextPOID
	repo.orders[poID] = PurchaseOrder{ID: poID, Number: "PO-1", BranchID: 1, SupplierID: 100, Status: StatusApproved, PODate: time.Now()}
	var lineIDs []int64
	for _, seed := range []struct {
		ingredientID int64
		qty          float64
	}{{11, 50}, {12, 30}} {
		repo.nextLineID++
		repo.lines[poID] = append(repo.lines[poID], POLine{ID: repo.nextLineID, POID: poID, IngredientID: seed.ingredientID, QtyOrdered: seed.qty, UnitPrice: 2})
		lineIDs = append(lineIDs, repo.nextLineID)
		repo.stock[[2]int64{1, seed.ingredientID}] = 10
	}
	return poID, lineIDs
}

func TestPreviewShortages(t *testing.T) {
	svc := newTestService(newMemoryPORepo())

	groups, err := svc.PreviewShortages(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	_, err = svc.PreviewShortages(context.Background(), 0)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAutoGenerateCreatesDraftOrders(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestService(repo)

	groups := BuildShortageGroups(snapshotFixture())
	editor := NewQuantityEditor(groups)
	editor.SetQuantity(100, 11, "0")

	ids, err := svc.AutoGenerate(context.Background(), GenerateInput{Orders: BuildDrafts(groups, editor)})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	po, lines, err := repo.GetPO(context.Background(), ids[0])
	require.NoError(t, err)
	require.Equal(t, StatusDraft, po.Status)
	require.Equal(t, int64(100), po.SupplierID)
	require.Len(t, lines, 1)
	require.Equal(t, "Onions", lines[0].Name)
	require.Equal(t, "kg", lines[0].Unit)
	require.Equal(t, 1.2, lines[0].UnitPrice)
	require.Equal(t, 30.0, lines[0].QtyOrdered)
}

func TestAutoGenerateRejectsEmptyAndZeroQuantity(t *testing.T) {
	svc := newTestService(newMemoryPORepo())

	_, err := svc.AutoGenerate(context.Background(), GenerateInput{})
	require.ErrorIs(t, err, ErrEmptyDraft)

	_, err = svc.AutoGenerate(context.Background(), GenerateInput{Orders: []Draft{{SupplierID: 100, BranchID: 1}}})
	require.ErrorIs(t, err, ErrEmptyDraft)

	_, err = svc.AutoGenerate(context.Background(), GenerateInput{Orders: []Draft{
		{SupplierID: 100, BranchID: 1, Lines: []DraftLine{{IngredientID: 11, Quantity: 0}}},
	}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestAutoGenerateRejectsUnstockedIngredient(t *testing.T) {
	repo := newMemoryPORepo()
	svc := newTestService(repo)

	_, err := svc.AutoGenerate(context.Background(), GenerateInput{Orders: []Draft{
		{SupplierID: 100, BranchID: 1, Lines: []DraftLine{{IngredientID: 999, Quantity: 5}}},
	}})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, repo.orders)
}

func TestCreateManualOrder(t *testing.T) {
	repo := newMemoryPORepo()
	repo.ingredients["Tomatoes"] = 11
	svc := newTestService(repo)

	id, err := svc.Create(context.Background(), CreateInput{
		BranchID:   1,
		SupplierID: 100,
		Items:      []CreateItem{{IngredientName: "Tomatoes", Quantity: 20, Unit: "kg", UnitPrice: 2.5}},
	})
	require.NoError(t, err)

	po, lines, err := repo.GetPO(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, po.Status)
	require.Len(t, lines, 1)
	require.Equal(t, int64(11), lines[0].IngredientID)
}

func TestCreateUnknownIngredientRollsBack(t *testing.T) {
	repo := newMemoryPORepo()
	repo.ingredients["Tomatoes"] = 11
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateInput{
		BranchID:   1,
		SupplierID: 100,
		Items: []CreateItem{
			{IngredientName: "Tomatoes", Quantity: 20, UnitPrice: 2.5},
			{IngredientName: "Unicorn Dust", Quantity: 1, UnitPrice: 9},
		},
	})
	require.ErrorIs(t, err, ErrValidation)
	require.Empty(t, repo.orders)
}

func TestLifecycleHappyPath(t *testing.T) {
	repo := newMemoryPORepo()
	repo.ingredients["Tomatoes"] = 11
	svc := newTestService(repo)

	id, err := svc.Create(context.Background(), CreateInput{
		BranchID:   1,
		SupplierID: 100,
		Items:      []CreateItem{{IngredientName: "Tomatoes", Quantity: 20, UnitPrice: 2.5}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Submit(context.Background(), 7, id))
	require.NoError(t, svc.Approve(context.Background(), 7, id))

	po, _, err := repo.GetPO(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, po.Status)
}

func TestUpdateStatusRejectsSkippedStep(t *testing.T) {
	repo := newMemoryPORepo()
	repo.ingredients["Tomatoes"] = 11
	svc := newTestService(repo)

	id, err := svc.Create(context.Background(), CreateInput{
		BranchID:   1,
		SupplierID: 100,
		Items:      []CreateItem{{IngredientName: "Tomatoes", Quantity: 20, UnitPrice: 2.5}},
	})
	require.NoError(t, err)

	err = svc.UpdateStatus(context.Background(), 7, id, StatusApproved)
	require.ErrorIs(t, err, ErrInvalidTransition)

	po, _, _ := repo.GetPO(context.Background(), id)
	require.Equal(t, StatusDraft, po.Status)
}

func TestUpdateStatusRejectsTerminalAndReceived(t *testing.T) {
	repo := newMemoryPORepo()
	poID, _ := seedApprovedPO(repo)
	svc := newTestService(repo)

	err := svc.UpdateStatus(context.Background(), 7, poID, StatusReceived)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.Cancel(context.Background(), 7, poID))
	err = svc.Submit(context.Background(), 7, poID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	err = svc.UpdateStatus(context.Background(), 7, poID, Status("bogus"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestReceiveIncrementsStockAndFlipsStatus(t *testing.T) {
	repo := newMemoryPORepo()
	poID, lineIDs := seedApprovedPO(repo)
	svc := newTestService(repo)

	err := svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID, Lines: []ReceiptLine{
		{POLineID: lineIDs[0], QtyReceived: 45},
		{POLineID: lineIDs[1], QtyReceived: 30},
	}})
	require.NoError(t, err)

	require.Equal(t, 55.0, repo.stock[[2]int64{1, 11}])
	require.Equal(t, 40.0, repo.stock[[2]int64{1, 12}])

	po, _, err := repo.GetPO(context.Background(), poID)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, po.Status)
	require.NotNil(t, po.ReceivedDate)
	require.NotNil(t, po.ReceivedBy)
	require.Equal(t, int64(7), *po.ReceivedBy)
}

func TestReceiveRejectsNonApproved(t *testing.T) {
	repo := newMemoryPORepo()
	poID, lineIDs := seedApprovedPO(repo)
	po := repo.orders[poID]
	po.Status = StatusDraft
	repo.orders[poID] = po
	svc := newTestService(repo)

	err := svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID, Lines: []ReceiptLine{{POLineID: lineIDs[0], QtyReceived: 5}}})
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, 10.0, repo.stock[[2]int64{1, 11}])
}

func TestReceiveValidatesLines(t *testing.T) {
	repo := newMemoryPORepo()
	poID, lineIDs := seedApprovedPO(repo)
	svc := newTestService(repo)

	err := svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID})
	require.ErrorIs(t, err, ErrValidation)

	err = svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID, Lines: []ReceiptLine{{POLineID: 999, QtyReceived: 5}}})
	require.ErrorIs(t, err, ErrValidation)

	err = svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID, Lines: []ReceiptLine{{POLineID: lineIDs[0], QtyReceived: -1}}})
	require.ErrorIs(t, err, ErrValidation)
}

func TestReceiveIsAtomic(t *testing.T) {
	repo := newMemoryPORepo()
	poID, lineIDs := seedApprovedPO(repo)
	// No stock row for the second ingredient makes its increment fail
	// mid-transaction.
	delete(repo.stock, [2]int64{1, 12})
	idem := &memoryIdem{}
	svc := NewService(repo, &sliceSnapshots{lines: snapshotFixture()}, nil, idem, nil)

	err := svc.Receive(context.Background(), 7, ReceivingRecord{POID: poID, Lines: []ReceiptLine{
		{POLineID: lineIDs[0], QtyReceived: 45},
		{POLineID: lineIDs[1], QtyReceived: 30},
	}})
	require.Error(t, err)

	require.Equal(t, 10.0, repo.stock[[2]int64{1, 11}])
	po, _, _ := repo.GetPO(context.Background(), poID)
	require.Equal(t, StatusApproved, po.Status)
	require.Empty(t, idem.keys)
}

func TestReceiveReplayIsRejected(t *testing.T) {
	repo := newMemoryPORepo()
	poID, lineIDs := seedApprovedPO(repo)
	idem := &memoryIdem{}
	svc := NewService(repo, &sliceSnapshots{lines: snapshotFixture()}, nil, idem, nil)

	first := ReceivingRecord{POID: poID, Lines: []ReceiptLine{{POLineID: lineIDs[0], QtyReceived: 45}}}
	require.NoError(t, svc.Receive(context.Background(), 7, first))

	// The status guard fires before the idempotency key on replay; both
	// protect the same invariant.
	err := svc.Receive(context.Background(), 7, first)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Len(t, idem.keys, 1)
}
