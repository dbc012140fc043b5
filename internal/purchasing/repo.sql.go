package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ladleworks/ladle/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations. Stock increments live here
// so a receipt's inventory deltas and the status flip commit or roll back as
// one unit.
type TxRepository interface {
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertPOLine(ctx context.Context, line POLine) error
	UpdatePOStatus(ctx context.Context, id int64, from, to Status) error
	SetReceived(ctx context.Context, id int64, receivedBy int64, receivedAt time.Time) error
	IncrementStock(ctx context.Context, branchID, ingredientID int64, qty float64) error
	LookupIngredient(ctx context.Context, name string) (int64, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// GetPO returns purchase order and lines.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, []POLine, error) {
	var po PurchaseOrder
	err := r.pool.QueryRow(ctx, `SELECT id, number, branch_id, supplier_id, status, po_date, COALESCE(expected_delivery_date, CURRENT_DATE), note, received_date, received_by FROM purchase_orders WHERE id=$1`, id).
		Scan(&po.ID, &po.Number, &po.BranchID, &po.SupplierID, &po.Status, &po.PODate, &po.ExpectedDeliveryDate, &po.Note, &po.ReceivedDate, &po.ReceivedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id, po_id, ingredient_id, name, unit, qty_ordered, unit_price FROM po_lines WHERE po_id=$1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	defer rows.Close()
	var lines []POLine
	for rows.Next() {
		var line POLine
		if err := rows.Scan(&line.ID, &line.POID, &line.IngredientID, &line.Name, &line.Unit, &line.QtyOrdered, &line.UnitPrice); err != nil {
			return PurchaseOrder{}, nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return PurchaseOrder{}, nil, err
	}
	return po, lines, nil
}

// ListFilters narrows the PO listing.
type ListFilters struct {
	Status     Status
	SupplierID int64
	BranchID   int64
	Search     string
	SortBy     string
	SortDir    string
}

// POListItem is the listing row with supplier name and order total.
type POListItem struct {
	ID                   int64     `json:"po_id"`
	Number               string    `json:"number"`
	BranchID             int64     `json:"branch_id"`
	SupplierID           int64     `json:"supplier_id"`
	SupplierName         string    `json:"supplier_name"`
	Status               Status    `json:"status"`
	PODate               time.Time `json:"po_date"`
	ExpectedDeliveryDate time.Time `json:"expected_delivery_date"`
	Total                float64   `json:"total"`
	CreatedAt            time.Time `json:"created_at"`
}

// ListPOs returns purchase orders with supplier name and total.
func (r *Repository) ListPOs(ctx context.Context, limit, offset int, filters ListFilters) ([]POListItem, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Status != "" {
		args = append(args, filters.Status)
		where += ` AND p.status = $` + itoa(len(args))
	}
	if filters.SupplierID > 0 {
		args = append(args, filters.SupplierID)
		where += ` AND p.supplier_id = $` + itoa(len(args))
	}
	if filters.BranchID > 0 {
		args = append(args, filters.BranchID)
		where += ` AND p.branch_id = $` + itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND p.number ILIKE $` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := `SELECT p.id, p.number, p.branch_id, p.supplier_id, COALESCE(s.name, '') AS supplier_name,
		p.status, p.po_date, COALESCE(p.expected_delivery_date, CURRENT_DATE), p.created_at,
		COALESCE((SELECT SUM(qty_ordered * unit_price) FROM po_lines WHERE po_id = p.id), 0) AS total
	FROM purchase_orders p
	LEFT JOIN suppliers s ON s.id = p.supplier_id` + where

	dataSQL += ` ORDER BY ` + sortOrderPO(filters.SortBy, filters.SortDir)
	args = append(args, limit, offset)
	dataSQL += ` LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []POListItem
	for rows.Next() {
		var item POListItem
		if err := rows.Scan(&item.ID, &item.Number, &item.BranchID, &item.SupplierID, &item.SupplierName,
			&item.Status, &item.PODate, &item.ExpectedDeliveryDate, &item.CreatedAt, &item.Total); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// itoa converts int to string for dynamic query building.
func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}

// sortOrderPO returns a safe ORDER BY clause for PO queries.
func sortOrderPO(sortBy, sortDir string) string {
	dir := "DESC"
	if sortDir == "asc" {
		dir = "ASC"
	}
	switch sortBy {
	case "number":
		return "p.number " + dir
	case "supplier":
		return "supplier_name " + dir
	case "expected_delivery_date":
		return "p.expected_delivery_date " + dir
	case "total":
		return "total " + dir
	case "status":
		return "p.status " + dir
	default:
		return "p.created_at DESC"
	}
}

func (tx *txRepo) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `INSERT INTO purchase_orders (number, branch_id, supplier_id, status, po_date, expected_delivery_date, note, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`, po.Number, po.BranchID, po.SupplierID, po.Status, po.PODate, nullDate(po.ExpectedDeliveryDate), po.Note).Scan(&id)
	return id, err
}

func (tx *txRepo) InsertPOLine(ctx context.Context, line POLine) error {
	_, err := tx.tx.Exec(ctx, `INSERT INTO po_lines (po_id, ingredient_id, name, unit, qty_ordered, unit_price) VALUES ($1,$2,$3,$4,$5,$6)`,
		line.POID, line.IngredientID, line.Name, line.Unit, line.QtyOrdered, line.UnitPrice)
	return err
}

// UpdatePOStatus flips status only when the row still carries the expected
// prior status. A concurrent operator who won the race leaves zero rows
// here, which surfaces as an invalid transition instead of a lost update.
func (tx *txRepo) UpdatePOStatus(ctx context.Context, id int64, from, to Status) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET status=$1 WHERE id=$2 AND status=$3`, to, id, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (tx *txRepo) SetReceived(ctx context.Context, id int64, receivedBy int64, receivedAt time.Time) error {
	_, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET received_date=$1, received_by=$2 WHERE id=$3`, receivedAt, nullInt(receivedBy), id)
	return err
}

func (tx *txRepo) IncrementStock(ctx context.Context, branchID, ingredientID int64, qty float64) error {
	tag, err := tx.tx.Exec(ctx, `UPDATE inventory_levels SET current_stock = current_stock + $1, updated_at = NOW() WHERE branch_id=$2 AND ingredient_id=$3`, qty, branchID, ingredientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no stock line for branch %d ingredient %d", ErrValidation, branchID, ingredientID)
	}
	return nil
}

func (tx *txRepo) LookupIngredient(ctx context.Context, name string) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx, `SELECT id FROM ingredients WHERE name=$1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%w: unknown ingredient %q", ErrValidation, name)
	}
	return id, err
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
