package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for stock levels.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Snapshot reads stock lines joined with ingredient, branch and supplier
// masterdata. Rows come back in ingredient insertion order so shortage
// grouping stays stable between calls.
func (r *Repository) Snapshot(ctx context.Context, filter SnapshotFilter) ([]Line, error) {
	query := `SELECT il.branch_id, b.name, il.ingredient_id, i.name, i.unit,
		il.current_stock, il.reorder_level, i.unit_price, COALESCE(i.supplier_id, 0), COALESCE(s.name, '')
	FROM inventory_levels il
	JOIN ingredients i ON i.id = il.ingredient_id
	JOIN branches b ON b.id = il.branch_id
	LEFT JOIN suppliers s ON s.id = i.supplier_id
	WHERE 1=1`
	args := []any{}
	if filter.BranchID > 0 {
		args = append(args, filter.BranchID)
		query += ` AND il.branch_id = $1`
	}
	if filter.SupplierID > 0 {
		args = append(args, filter.SupplierID)
		query += ` AND i.supplier_id = $` + itoa(len(args))
	}
	if filter.OnlyShort {
		query += ` AND il.current_stock < il.reorder_level`
	}
	query += ` ORDER BY il.ingredient_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.BranchID, &line.BranchName, &line.IngredientID, &line.IngredientName,
			&line.Unit, &line.CurrentStock, &line.ReorderLevel, &line.UnitPrice, &line.SupplierID, &line.SupplierName); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// AdjustStock applies an additive delta, refusing updates that would leave the
// line negative. Returns the resulting stock level.
func (r *Repository) AdjustStock(ctx context.Context, branchID, ingredientID int64, delta float64) (float64, error) {
	var result float64
	err := r.pool.QueryRow(ctx, `UPDATE inventory_levels
		SET current_stock = current_stock + $3, updated_at = NOW()
		WHERE branch_id = $1 AND ingredient_id = $2 AND current_stock + $3 >= 0
		RETURNING current_stock`, branchID, ingredientID, delta).Scan(&result)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	// Zero rows: either the line is missing or the delta would go negative.
	var exists bool
	if probeErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_levels WHERE branch_id=$1 AND ingredient_id=$2)`, branchID, ingredientID).Scan(&exists); probeErr != nil {
		return 0, probeErr
	}
	if !exists {
		return 0, ErrLineNotFound
	}
	return 0, ErrNegativeStock
}

// itoa converts int to string for dynamic query building.
func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
