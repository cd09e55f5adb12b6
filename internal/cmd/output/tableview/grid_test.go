package tableview

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vehicleColumns() []Column {
	return []Column{
		{Key: "chassis_no", Label: "Chassis No"},
		{Key: "model", Label: "Model"},
		{Key: "status", Label: "Status"},
		{Key: "price", Label: "Price"},
		{Key: "insured", Label: "Insured"},
	}
}

func vehicleRecords() []Record {
	return []Record{
		{ID: "v1", Fields: map[string]any{"chassis_no": "CH-001", "model": "Nexon", "status": "Sold", "price": 850000.0, "insured": true}},
		{ID: "v2", Fields: map[string]any{"chassis_no": "CH-002", "model": "altroz", "status": "In Stock", "price": 650000.0, "insured": false}},
		{ID: "v3", Fields: map[string]any{"chassis_no": "CH-003", "model": "Punch", "status": "Booked", "price": 600000.0, "insured": true}},
		{ID: "v4", Fields: map[string]any{"chassis_no": "CH-004", "model": "Harrier", "status": "Sold", "price": 1500000.0, "insured": false}},
		{ID: "v5", Fields: map[string]any{"chassis_no": "CH-005", "model": "Safari", "status": "In Stock", "price": 1650000.0, "insured": true}},
		{ID: "v6", Fields: map[string]any{"chassis_no": "CH-006", "model": "Tiago", "status": "Booked", "price": 500000.0, "insured": false}},
	}
}

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestGrid_FilterMatchesRenderedCells(t *testing.T) {
	columns := []Column{
		{Key: "chassis_no", Label: "Chassis No"},
		{Key: "purchase_date", Label: "Purchased", Render: func(_ Record, v any) string {
			if v == "2024-01-15" {
				return "15/01/2024"
			}
			return fmt.Sprint(v)
		}},
		{Key: "price", Label: "Price", Render: func(_ Record, v any) string {
			if v == 649000.0 {
				return "₹6,49,000.00"
			}
			return fmt.Sprint(v)
		}},
	}
	records := []Record{
		{ID: "a", Fields: map[string]any{"chassis_no": "CH-1", "purchase_date": "2024-01-15", "price": 649000.0}},
		{ID: "b", Fields: map[string]any{"chassis_no": "CH-2", "purchase_date": "2024-02-01", "price": 500000.0}},
	}
	g := NewGrid(columns, records)

	assert.Equal(t, []string{"a"}, ids(g.SetFilter("15/01/2024").FilteredRecords()))
	assert.Equal(t, []string{"a"}, ids(g.SetFilter("2024-01-15").FilteredRecords()))
	assert.Equal(t, []string{"a"}, ids(g.SetFilter("6,49,000").FilteredRecords()))
	assert.Equal(t, []string{"a"}, ids(g.SetFilter("649000").FilteredRecords()))
}

func TestGrid_FilterAndPageCount(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(5))

	require.Equal(t, 6, g.FilteredCount())
	require.Equal(t, 2, g.TotalPages())
	require.Equal(t, []string{"v1", "v2", "v3", "v4", "v5"}, ids(g.PageRecords()))

	sold := g.SetFilter("sold")
	require.Equal(t, []string{"v1", "v4"}, ids(sold.FilteredRecords()))
	require.Equal(t, 1, sold.TotalPages())
	current, total := sold.PageIndicator()
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, total)

	assert.Equal(t, 2, g.SetFilter("SOLD").FilteredCount())
	assert.Equal(t, 6, g.FilteredCount(), "filtering returns a new grid")
}

func TestGrid_FilterMatchesAnyField(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords())

	assert.Equal(t, []string{"v2"}, ids(g.SetFilter("ALTROZ").FilteredRecords()))
	assert.Equal(t, []string{"v4"}, ids(g.SetFilter("1500000").FilteredRecords()))
	assert.Equal(t, []string{"v1", "v3", "v5"}, ids(g.SetFilter("true").FilteredRecords()))
	assert.Empty(t, g.SetFilter("no such thing").FilteredRecords())
	assert.Equal(t, 6, g.SetFilter("").FilteredCount())
}

func TestGrid_FilterReturnsToFirstPage(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(2)).GoToPage(3)
	require.Equal(t, 3, g.Page())

	g = g.SetFilter("ch-")
	assert.Equal(t, 1, g.Page())
	assert.Equal(t, 3, g.TotalPages())
}

func TestGrid_PageIsClamped(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(4))

	assert.Equal(t, 2, g.GoToPage(99).Page())
	assert.Equal(t, 1, g.GoToPage(0).Page())
	assert.Equal(t, 1, g.GoToPage(-3).Page())

	last := g.NextPage()
	assert.Equal(t, 2, last.Page())
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())
	assert.Equal(t, 2, last.NextPage().Page())
	assert.Equal(t, []string{"v5", "v6"}, ids(last.PageRecords()))

	assert.Equal(t, 1, last.PrevPage().PrevPage().Page())
	assert.False(t, g.HasPrev())
}

func TestGrid_Empty(t *testing.T) {
	g := NewGrid(vehicleColumns(), nil)

	assert.Equal(t, 1, g.Page())
	assert.Equal(t, 0, g.TotalPages())
	current, total := g.PageIndicator()
	assert.Equal(t, 0, current)
	assert.Equal(t, 0, total)
	assert.Empty(t, g.PageRecords())
	assert.False(t, g.HasNext())
	assert.False(t, g.HasPrev())
	assert.Equal(t, HeaderNone, g.HeaderSelection())
	assert.Equal(t, g, g.ToggleAllOnPage())
}

func TestGrid_SetPageSize(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords()).SetPageSize(4).GoToPage(2)
	require.Equal(t, 2, g.Page())

	g = g.SetPageSize(3)
	assert.Equal(t, 1, g.Page())
	assert.Equal(t, 2, g.TotalPages())

	assert.Equal(t, 1, g.SetPageSize(0).PageSize())
}

func TestGrid_RemoveRecordReturnsToFirstPage(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(5)).GoToPage(2)
	require.Equal(t, []string{"v6"}, ids(g.PageRecords()))

	g = g.RemoveRecord("v6")
	assert.Equal(t, 1, g.Page())
	assert.Equal(t, 1, g.TotalPages())
	assert.Equal(t, 5, g.Len())
	_, ok := g.Record("v6")
	assert.False(t, ok)

	assert.Equal(t, 5, g.RemoveRecord("unknown").Len())
}

func TestGrid_SortStrings(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords())

	asc := g.ToggleSort("model")
	assert.Equal(t, SortState{Key: "model", Direction: SortAscending}, asc.Sort())
	// collation ignores case, so "altroz" sorts first
	assert.Equal(t, []string{"v2", "v4", "v1", "v3", "v5", "v6"}, ids(asc.FilteredRecords()))

	desc := asc.ToggleSort("model")
	assert.Equal(t, SortDescending, desc.Sort().Direction)
	assert.Equal(t, []string{"v6", "v5", "v3", "v1", "v4", "v2"}, ids(desc.FilteredRecords()))

	assert.Equal(t, SortAscending, desc.ToggleSort("model").Sort().Direction)
	assert.Equal(t, SortState{Key: "status", Direction: SortAscending}, desc.ToggleSort("status").Sort())
}

func TestGrid_SortIsStableForEqualValues(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords()).ToggleSort("status")
	assert.Equal(t, []string{"v3", "v6", "v2", "v5", "v1", "v4"}, ids(g.FilteredRecords()))

	g = g.ToggleSort("status")
	assert.Equal(t, []string{"v1", "v4", "v2", "v5", "v3", "v6"}, ids(g.FilteredRecords()))
}

func TestGrid_SortBooleansTrueFirst(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords()).ToggleSort("insured")
	assert.Equal(t, []string{"v1", "v3", "v5", "v2", "v4", "v6"}, ids(g.FilteredRecords()))

	g = g.ToggleSort("insured")
	assert.Equal(t, []string{"v2", "v4", "v6", "v1", "v3", "v5"}, ids(g.FilteredRecords()))
}

func TestGrid_SortOtherKindsKeepOrder(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords())

	for _, sorted := range []Grid{g.ToggleSort("price"), g.ToggleSort("price").ToggleSort("price")} {
		assert.Equal(t, []string{"v1", "v2", "v3", "v4", "v5", "v6"}, ids(sorted.FilteredRecords()))
	}
}

func TestGrid_SortSurvivesFilterChanges(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords()).ToggleSort("model").ToggleSort("model")
	g = g.SetFilter("sold")

	assert.Equal(t, SortState{Key: "model", Direction: SortDescending}, g.Sort())
	assert.Equal(t, []string{"v1", "v4"}, ids(g.FilteredRecords()))

	g = g.SetFilter("")
	assert.Equal(t, "v6", g.FilteredRecords()[0].ID)
}

func TestGrid_SortIgnoredWhenDisabledOrUnknown(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithSorting(false))
	assert.False(t, g.Sortable())
	assert.Equal(t, SortState{}, g.ToggleSort("model").Sort())

	g = NewGrid(vehicleColumns(), vehicleRecords())
	assert.Equal(t, SortState{}, g.ToggleSort("color").Sort())
}

func TestGrid_SelectRows(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(3))

	g = g.ToggleRow("v2")
	assert.True(t, g.IsSelected("v2"))
	assert.Equal(t, HeaderPartial, g.HeaderSelection())

	g = g.ToggleRow("v2")
	assert.False(t, g.IsSelected("v2"))
	assert.Equal(t, HeaderNone, g.HeaderSelection())

	assert.Empty(t, g.ToggleRow("missing").Selected())
}

func TestGrid_SelectAllOnPage(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(3))
	g = g.GoToPage(2).ToggleRow("v5").GoToPage(1)

	g = g.ToggleRow("v1")
	require.Equal(t, HeaderPartial, g.HeaderSelection())

	g = g.ToggleAllOnPage()
	assert.Equal(t, HeaderAll, g.HeaderSelection())
	assert.Equal(t, []string{"v1", "v2", "v3", "v5"}, g.Selected())

	g = g.ToggleAllOnPage()
	assert.Equal(t, HeaderNone, g.HeaderSelection())
	assert.Equal(t, []string{"v5"}, g.Selected(), "rows on other pages keep their selection")

	g = g.GoToPage(2)
	assert.Equal(t, HeaderPartial, g.HeaderSelection())
}

func TestGrid_SelectionIsNotShared(t *testing.T) {
	base := NewGrid(vehicleColumns(), vehicleRecords()).ToggleRow("v1")
	next := base.ToggleRow("v2")

	assert.Equal(t, []string{"v1"}, base.Selected())
	assert.Equal(t, []string{"v1", "v2"}, next.Selected())
}

func TestGrid_WithRecordsDropsStaleSelections(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords()).ToggleRow("v1").ToggleRow("v6")

	records := vehicleRecords()[:3]
	g = g.WithRecords(records)
	assert.Equal(t, []string{"v1"}, g.Selected())
	assert.Equal(t, 3, g.Len())

	if diff := cmp.Diff(records, g.Records()); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestGrid_Cell(t *testing.T) {
	cols := vehicleColumns()
	cols[3].Render = func(_ Record, v any) string {
		return "Rs " + stringify(v)
	}
	g := NewGrid(cols, vehicleRecords())
	r, ok := g.Record("v4")
	require.True(t, ok)

	assert.Equal(t, "Harrier", g.Cell(r, cols[1]))
	assert.Equal(t, "Rs 1500000", g.Cell(r, cols[3]))
	assert.Equal(t, "false", g.Cell(r, cols[4]))
	assert.Equal(t, "", g.Cell(r, Column{Key: "missing"}))
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "12345678901", stringify(12345678901.0))
	assert.Equal(t, "0.5", stringify(0.5))
	assert.Equal(t, "42", stringify(42))
	assert.Equal(t, "true", stringify(true))
}

func TestGrid_ValueSemantics(t *testing.T) {
	g := NewGrid(vehicleColumns(), vehicleRecords(), WithPageSize(2))
	_ = g.SetFilter("sold").ToggleSort("model").GoToPage(2).ToggleRow("v1")

	assert.Equal(t, "", g.Filter())
	assert.Equal(t, SortState{}, g.Sort())
	assert.Equal(t, 1, g.Page())
	assert.Empty(t, g.Selected())
}
