package purchasing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"45", 45},
		{"12.5", 12.5},
		{"0", 0},
		{"-3", -3},
		{"", 0},
		{"abc", 0},
		{"45 kg", 0},
		{"1e3", 1000},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ParseQuantity(tc.raw), "raw=%q", tc.raw)
	}
}

func TestEditorDefaultsToSuggested(t *testing.T) {
	editor := NewQuantityEditor(BuildShortageGroups(snapshotFixture()))

	require.Equal(t, 50.0, editor.Quantity(100, 11))
	require.Equal(t, 30.0, editor.Quantity(100, 12))
	require.Equal(t, 40.0, editor.Quantity(200, 21))
}

func TestEditorOverrideAndReset(t *testing.T) {
	editor := NewQuantityEditor(BuildShortageGroups(snapshotFixture()))

	editor.SetQuantity(100, 11, "75")
	require.Equal(t, 75.0, editor.Quantity(100, 11))

	editor.SetQuantity(100, 11, "not a number")
	require.Equal(t, 0.0, editor.Quantity(100, 11))

	editor.Reset()
	require.Equal(t, 50.0, editor.Quantity(100, 11))
}

func TestEditorIgnoresUnknownKeys(t *testing.T) {
	editor := NewQuantityEditor(BuildShortageGroups(snapshotFixture()))

	editor.SetQuantity(999, 11, "10")
	require.Equal(t, 0.0, editor.Quantity(999, 11))
}

func TestEditorSubtotal(t *testing.T) {
	editor := NewQuantityEditor(BuildShortageGroups(snapshotFixture()))

	require.Equal(t, 125.0, editor.Subtotal(100, 11))
	editor.SetQuantity(100, 11, "10")
	require.Equal(t, 25.0, editor.Subtotal(100, 11))
	require.Equal(t, 0.0, editor.Subtotal(100, 999))
}

func TestEditorEligibleCounts(t *testing.T) {
	editor := NewQuantityEditor(BuildShortageGroups(snapshotFixture()))

	require.Equal(t, 2, editor.EligiblePOCount())
	require.Equal(t, 3, editor.EligibleLineCount())

	editor.SetQuantity(200, 21, "0")
	require.Equal(t, 1, editor.EligiblePOCount())
	require.Equal(t, 2, editor.EligibleLineCount())
}
