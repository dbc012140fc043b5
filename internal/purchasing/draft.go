package purchasing

// DraftLine is one orderable ingredient with its final quantity.
type DraftLine struct {
	IngredientID int64
	Quantity     float64
}

// Draft is a creation request for one supplier-scoped purchase order. A
// draft with zero lines is never built; the builder drops the supplier
// instead of emitting an empty order.
type Draft struct {
	SupplierID int64
	BranchID   int64
	Lines      []DraftLine
}

// BuildDrafts converts an edited shortage set into purchase order drafts,
// one per supplier, preserving supplier order. Lines with a non-positive
// effective quantity are excluded; a supplier whose lines were all zeroed is
// dropped silently. An empty result is valid output; blocking submission on
// it is the caller's responsibility.
//
// Building is pure: the same groups and editor state always yield identical
// drafts.
func BuildDrafts(groups []ShortageGroup, editor *QuantityEditor) []Draft {
	var drafts []Draft
	for _, group := range groups {
		var lines []DraftLine
		for _, line := range group.Lines {
			qty := editor.Quantity(group.SupplierID, line.IngredientID)
			if qty <= 0 {
				continue
			}
			lines = append(lines, DraftLine{IngredientID: line.IngredientID, Quantity: qty})
		}
		if len(lines) == 0 {
			continue
		}
		drafts = append(drafts, Draft{
			SupplierID: group.SupplierID,
			BranchID:   group.BranchID,
			Lines:      lines,
		})
	}
	return drafts
}
