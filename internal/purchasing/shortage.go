package purchasing

import (
	"github.com/ladleworks/ladle/internal/inventory"
)

// ShortageLine is an inventory line below its reorder level, annotated with
// the system-suggested order quantity.
type ShortageLine struct {
	inventory.Line
	SuggestedQuantity float64
}

// ShortageGroup collects one supplier's shortage lines for a branch.
type ShortageGroup struct {
	SupplierID   int64
	SupplierName string
	BranchID     int64
	Lines        []ShortageLine
}

// BuildShortageGroups filters the snapshot to lines strictly below their
// reorder level and groups them per supplier. Suppliers appear in the order
// first encountered while scanning the snapshot, lines in snapshot order;
// suppliers with no qualifying lines are omitted entirely.
//
// The suggested quantity is the reorder level itself: enough to bring the
// shelf back to the threshold, with no safety-stock multiplier. Deliberately
// simple; operators adjust the numbers before submitting.
func BuildShortageGroups(lines []inventory.Line) []ShortageGroup {
	var groups []ShortageGroup
	index := make(map[int64]int)
	for _, line := range lines {
		if !line.BelowReorder() {
			continue
		}
		pos, ok := index[line.SupplierID]
		if !ok {
			pos = len(groups)
			index[line.SupplierID] = pos
			groups = append(groups, ShortageGroup{
				SupplierID:   line.SupplierID,
				SupplierName: line.SupplierName,
				BranchID:     line.BranchID,
			})
		}
		groups[pos].Lines = append(groups[pos].Lines, ShortageLine{
			Line:              line,
			SuggestedQuantity: line.ReorderLevel,
		})
	}
	return groups
}
