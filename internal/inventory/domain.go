package inventory

import "errors"

// Line is the branch-scoped stock row for one ingredient. Current stock and
// reorder level are always read together; "below reorder" is a strict
// comparison, a line sitting exactly at its reorder level is not short.
type Line struct {
	BranchID       int64
	BranchName     string
	IngredientID   int64
	IngredientName string
	Unit           string
	CurrentStock   float64
	ReorderLevel   float64
	UnitPrice      float64
	SupplierID     int64
	SupplierName   string
}

// BelowReorder reports whether the line qualifies as a shortage.
func (l Line) BelowReorder() bool {
	return l.CurrentStock < l.ReorderLevel
}

// AdjustmentInput describes an additive stock delta. Delta is applied on top
// of the current stock, never assigned.
type AdjustmentInput struct {
	BranchID     int64
	IngredientID int64
	Delta        float64
	Reason       string
	ActorID      int64
	RefModule    string
	RefID        string
}

// SnapshotFilter narrows the snapshot read.
type SnapshotFilter struct {
	BranchID   int64
	SupplierID int64
	OnlyShort  bool
}

var (
	// ErrLineNotFound indicates no stock row for the branch/ingredient pair.
	ErrLineNotFound = errors.New("inventory: stock line not found")
	// ErrNegativeStock triggered when a delta would drive stock below zero.
	ErrNegativeStock = errors.New("inventory: negative stock not allowed")
	// ErrInvalidDelta indicates a zero adjustment.
	ErrInvalidDelta = errors.New("inventory: delta must be non zero")
)
