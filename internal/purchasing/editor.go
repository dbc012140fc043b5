package purchasing

import (
	"math"
	"strconv"
)

type editKey struct {
	supplierID   int64
	ingredientID int64
}

// QuantityEditor holds one editing session's operator overrides, keyed by
// (supplier, ingredient). State is purely in-memory and scoped to the
// session; closing the session discards every edit.
type QuantityEditor struct {
	groups []ShortageGroup
	qty    map[editKey]float64
}

// NewQuantityEditor initialises every key to its suggested quantity.
func NewQuantityEditor(groups []ShortageGroup) *QuantityEditor {
	e := &QuantityEditor{groups: groups}
	e.Reset()
	return e
}

// Reset discards all edits and re-initialises from suggested quantities.
func (e *QuantityEditor) Reset() {
	e.qty = make(map[editKey]float64)
	for _, group := range e.groups {
		for _, line := range group.Lines {
			e.qty[editKey{group.SupplierID, line.IngredientID}] = line.SuggestedQuantity
		}
	}
}

// ParseQuantity parses raw as a float, yielding 0 for anything unparsable.
// Intentionally lossy: a deliberate "0" and garbage input are
// indistinguishable downstream. Non-finite values count as unparsable.
func ParseQuantity(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// SetQuantity stores the operator's override for one line. Unknown keys are
// ignored; the editor only tracks lines present in the shortage set.
func (e *QuantityEditor) SetQuantity(supplierID, ingredientID int64, raw string) {
	key := editKey{supplierID, ingredientID}
	if _, ok := e.qty[key]; !ok {
		return
	}
	e.qty[key] = ParseQuantity(raw)
}

// Quantity returns the effective quantity for one line.
func (e *QuantityEditor) Quantity(supplierID, ingredientID int64) float64 {
	return e.qty[editKey{supplierID, ingredientID}]
}

// Subtotal is the effective quantity times the line's unit price.
func (e *QuantityEditor) Subtotal(supplierID, ingredientID int64) float64 {
	for _, group := range e.groups {
		if group.SupplierID != supplierID {
			continue
		}
		for _, line := range group.Lines {
			if line.IngredientID == ingredientID {
				return e.Quantity(supplierID, ingredientID) * line.UnitPrice
			}
		}
	}
	return 0
}

// EligiblePOCount counts suppliers with at least one positive line.
func (e *QuantityEditor) EligiblePOCount() int {
	count := 0
	for _, group := range e.groups {
		for _, line := range group.Lines {
			if e.Quantity(group.SupplierID, line.IngredientID) > 0 {
				count++
				break
			}
		}
	}
	return count
}

// EligibleLineCount counts lines with a positive quantity across suppliers.
func (e *QuantityEditor) EligibleLineCount() int {
	count := 0
	for _, group := range e.groups {
		for _, line := range group.Lines {
			if e.Quantity(group.SupplierID, line.IngredientID) > 0 {
				count++
			}
		}
	}
	return count
}
