package purchasing

import (
	"errors"
	"time"
)

// Purchase order lifecycle statuses. Values are wire-level and must stay
// lowercase for API compatibility.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransition encodes the lifecycle graph as a switch over the enum so a
// new status cannot be added without the compiler-visible cases being
// revisited. Receiving is a transition like any other here; the service
// additionally requires a delivery record for approved -> received.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusDraft:
		return to == StatusSubmitted || to == StatusCancelled
	case StatusSubmitted:
		return to == StatusApproved || to == StatusCancelled
	case StatusApproved:
		return to == StatusReceived || to == StatusCancelled
	case StatusReceived, StatusCancelled:
		return false
	}
	return false
}

// PurchaseOrder domain model.
type PurchaseOrder struct {
	ID                   int64
	Number               string
	BranchID             int64
	SupplierID           int64
	Status               Status
	PODate               time.Time
	ExpectedDeliveryDate time.Time
	Note                 string
	ReceivedDate         *time.Time
	ReceivedBy           *int64
}

// POLine represents one ordered ingredient.
type POLine struct {
	ID           int64
	POID         int64
	IngredientID int64
	Name         string
	Unit         string
	QtyOrdered   float64
	UnitPrice    float64
}

// ReceiptLine pairs a PO line with the delivered quantity. Received may be
// below or above the ordered quantity; it only has to be non-negative.
type ReceiptLine struct {
	POLineID    int64
	QtyReceived float64
}

// ReceivingRecord captures one confirmed delivery for a PO.
type ReceivingRecord struct {
	POID  int64
	Lines []ReceiptLine
}

var (
	// ErrInvalidTransition occurs when an action violates the status graph.
	ErrInvalidTransition = errors.New("purchasing: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("purchasing: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("purchasing: invalid input")
	// ErrEmptyDraft occurs when a submission carries no orderable lines.
	ErrEmptyDraft = errors.New("purchasing: no lines with positive quantity")
)
