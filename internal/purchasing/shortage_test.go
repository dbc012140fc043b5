package purchasing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ladleworks/ladle/internal/inventory"
)

func snapshotFixture() []inventory.Line {
	return []inventory.Line{
		{BranchID: 1, BranchName: "Downtown", IngredientID: 11, IngredientName: "Tomatoes", Unit: "kg", CurrentStock: 10, ReorderLevel: 50, UnitPrice: 2.5, SupplierID: 100, SupplierName: "Fresh Farms"},
		{BranchID: 1, BranchName: "Downtown", IngredientID: 12, IngredientName: "Onions", Unit: "kg", CurrentStock: 5, ReorderLevel: 30, UnitPrice: 1.2, SupplierID: 100, SupplierName: "Fresh Farms"},
		{BranchID: 1, BranchName: "Downtown", IngredientID: 21, IngredientName: "Milk", Unit: "l", CurrentStock: 8, ReorderLevel: 40, UnitPrice: 0.9, SupplierID: 200, SupplierName: "Dairy Co"},
		{BranchID: 1, BranchName: "Downtown", IngredientID: 31, IngredientName: "Salt", Unit: "kg", CurrentStock: 90, ReorderLevel: 10, UnitPrice: 0.4, SupplierID: 300, SupplierName: "Dry Goods"},
	}
}

func TestBuildShortageGroupsFiltersAndGroups(t *testing.T) {
	groups := BuildShortageGroups(snapshotFixture())

	require.Len(t, groups, 2)
	require.Equal(t, int64(100), groups[0].SupplierID)
	require.Equal(t, "Fresh Farms", groups[0].SupplierName)
	require.Len(t, groups[0].Lines, 2)
	require.Equal(t, int64(200), groups[1].SupplierID)
	require.Len(t, groups[1].Lines, 1)
}

func TestBuildShortageGroupsSuggestsReorderLevel(t *testing.T) {
	groups := BuildShortageGroups(snapshotFixture())

	require.Equal(t, 50.0, groups[0].Lines[0].SuggestedQuantity)
	require.Equal(t, 30.0, groups[0].Lines[1].SuggestedQuantity)
	require.Equal(t, 40.0, groups[1].Lines[0].SuggestedQuantity)
}

func TestBuildShortageGroupsAtReorderLevelIsNotShort(t *testing.T) {
	lines := []inventory.Line{
		{BranchID: 1, IngredientID: 11, CurrentStock: 50, ReorderLevel: 50, SupplierID: 100},
	}
	require.Empty(t, BuildShortageGroups(lines))
}

func TestBuildShortageGroupsEmptySnapshot(t *testing.T) {
	require.Empty(t, BuildShortageGroups(nil))
}
