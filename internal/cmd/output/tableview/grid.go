package tableview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const DefaultPageSize = 10

// Record is one row of a grid. ID is stable for the life of the record.
type Record struct {
	ID     string
	Fields map[string]any
}

// Renderer turns a raw field value into display text.
type Renderer func(record Record, value any) string

// Column describes one grid column. Column order is display order. A nil
// Render displays the value's string form.
type Column struct {
	Key    string
	Label  string
	Render Renderer
}

type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

func (d SortDirection) String() string {
	switch d {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return ""
	}
}

type SortState struct {
	Key       string
	Direction SortDirection
}

// HeaderState is the tri-state of the page's select-all checkbox.
type HeaderState int

const (
	HeaderNone HeaderState = iota
	HeaderPartial
	HeaderAll
)

// Grid is the filter, sort, page and selection state of a table over an
// immutable record list. Every operation returns a new Grid and leaves the
// receiver unchanged, so a Grid can be held as a plain value.
type Grid struct {
	columns   []Column
	records   []Record
	filter    string
	page      int
	pageSize  int
	selection map[string]struct{}
	sort      SortState
	sortable  bool
	lang      language.Tag

	// visible holds indexes into records after filtering and sorting.
	visible []int
}

type GridOption func(*Grid)

// WithPageSize sets the number of records per page. Values below one are
// ignored.
func WithPageSize(n int) GridOption {
	return func(g *Grid) {
		if n > 0 {
			g.pageSize = n
		}
	}
}

// WithSorting enables or disables column sorting. Sorting is enabled by
// default.
func WithSorting(enabled bool) GridOption {
	return func(g *Grid) { g.sortable = enabled }
}

// WithLanguage sets the collation used to compare text when sorting.
func WithLanguage(tag language.Tag) GridOption {
	return func(g *Grid) { g.lang = tag }
}

func NewGrid(columns []Column, records []Record, opts ...GridOption) Grid {
	g := Grid{
		columns:  append([]Column(nil), columns...),
		records:  append([]Record(nil), records...),
		page:     1,
		pageSize: DefaultPageSize,
		sortable: true,
		lang:     language.English,
	}
	for _, opt := range opts {
		opt(&g)
	}
	return g.derive()
}

func (g Grid) Columns() []Column {
	return append([]Column(nil), g.columns...)
}

// Records returns the full, unfiltered record list.
func (g Grid) Records() []Record {
	return append([]Record(nil), g.records...)
}

func (g Grid) Filter() string { return g.filter }

func (g Grid) Page() int { return g.page }

func (g Grid) PageSize() int { return g.pageSize }

func (g Grid) Sort() SortState { return g.sort }

func (g Grid) Sortable() bool { return g.sortable }

// Len is the number of records before filtering.
func (g Grid) Len() int { return len(g.records) }

// FilteredCount is the number of records matching the filter.
func (g Grid) FilteredCount() int { return len(g.visible) }

// Record looks up a record by ID regardless of the filter.
func (g Grid) Record(id string) (Record, bool) {
	for _, r := range g.records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// SetFilter shows only records where the string form of at least one field
// contains text, ignoring case. The page returns to the first.
func (g Grid) SetFilter(text string) Grid {
	g.filter = text
	g.page = 1
	return g.derive()
}

func (g Grid) SetPageSize(n int) Grid {
	if n < 1 {
		n = 1
	}
	g.pageSize = n
	g.page = 1
	return g.derive()
}

// WithRecords replaces the record list. The page returns to the first and
// selections of records that no longer exist are dropped.
func (g Grid) WithRecords(records []Record) Grid {
	g.records = append([]Record(nil), records...)
	g.page = 1

	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
	}
	selection := make(map[string]struct{}, len(g.selection))
	for id := range g.selection {
		if _, ok := ids[id]; ok {
			selection[id] = struct{}{}
		}
	}
	g.selection = selection
	return g.derive()
}

// RemoveRecord replaces the record list with one that lacks id.
func (g Grid) RemoveRecord(id string) Grid {
	records := make([]Record, 0, len(g.records))
	for _, r := range g.records {
		if r.ID != id {
			records = append(records, r)
		}
	}
	return g.WithRecords(records)
}

// ToggleSort sorts by key ascending, or flips the direction when the grid is
// already sorted by key. Unknown keys and grids without sorting are
// returned unchanged.
func (g Grid) ToggleSort(key string) Grid {
	if !g.sortable || !g.hasColumn(key) {
		return g
	}
	if g.sort.Key == key && g.sort.Direction == SortAscending {
		g.sort = SortState{Key: key, Direction: SortDescending}
	} else {
		g.sort = SortState{Key: key, Direction: SortAscending}
	}
	return g.derive()
}

func (g Grid) TotalPages() int {
	return (len(g.visible) + g.pageSize - 1) / g.pageSize
}

// PageIndicator returns the current page and the page count, or 0 of 0 when
// no record matches.
func (g Grid) PageIndicator() (current, total int) {
	total = g.TotalPages()
	if total == 0 {
		return 0, 0
	}
	return g.page, total
}

func (g Grid) GoToPage(n int) Grid {
	g.page = n
	return g.derive()
}

func (g Grid) NextPage() Grid { return g.GoToPage(g.page + 1) }

func (g Grid) PrevPage() Grid { return g.GoToPage(g.page - 1) }

func (g Grid) HasNext() bool { return g.page < g.TotalPages() }

func (g Grid) HasPrev() bool { return g.page > 1 }

// PageRecords returns the records shown on the current page.
func (g Grid) PageRecords() []Record {
	start, end := g.pageBounds()
	out := make([]Record, 0, end-start)
	for _, idx := range g.visible[start:end] {
		out = append(out, g.records[idx])
	}
	return out
}

// FilteredRecords returns every record matching the filter in display order.
func (g Grid) FilteredRecords() []Record {
	out := make([]Record, len(g.visible))
	for i, idx := range g.visible {
		out[i] = g.records[idx]
	}
	return out
}

func (g Grid) IsSelected(id string) bool {
	_, ok := g.selection[id]
	return ok
}

// ToggleRow flips the selection of one record. Unknown IDs are ignored.
func (g Grid) ToggleRow(id string) Grid {
	if _, ok := g.Record(id); !ok {
		return g
	}
	selection := g.copySelection()
	if _, ok := selection[id]; ok {
		delete(selection, id)
	} else {
		selection[id] = struct{}{}
	}
	g.selection = selection
	return g
}

// ToggleAllOnPage deselects every row of the current page when all of them
// are selected and selects them all otherwise. Rows on other pages keep
// their selection.
func (g Grid) ToggleAllOnPage() Grid {
	rows := g.PageRecords()
	if len(rows) == 0 {
		return g
	}
	all := g.HeaderSelection() == HeaderAll
	selection := g.copySelection()
	for _, r := range rows {
		if all {
			delete(selection, r.ID)
		} else {
			selection[r.ID] = struct{}{}
		}
	}
	g.selection = selection
	return g
}

// HeaderSelection reports how many rows of the current page are selected.
func (g Grid) HeaderSelection() HeaderState {
	rows := g.PageRecords()
	selected := 0
	for _, r := range rows {
		if g.IsSelected(r.ID) {
			selected++
		}
	}
	switch {
	case selected == 0:
		return HeaderNone
	case selected == len(rows):
		return HeaderAll
	default:
		return HeaderPartial
	}
}

// Selected returns the selected IDs in record order.
func (g Grid) Selected() []string {
	var ids []string
	for _, r := range g.records {
		if g.IsSelected(r.ID) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Cell returns the display text of one column for record.
func (g Grid) Cell(record Record, column Column) string {
	value := record.Fields[column.Key]
	if column.Render != nil {
		return column.Render(record, value)
	}
	return stringify(value)
}

// derive recomputes the visible rows and brings the page back into
// [1, max(1, TotalPages)].
func (g Grid) derive() Grid {
	g.visible = g.filtered()
	g.sortVisible()
	g.page = clamp(g.page, 1, max(1, g.TotalPages()))
	return g
}

func (g Grid) filtered() []int {
	visible := make([]int, 0, len(g.records))
	if g.filter == "" {
		for i := range g.records {
			visible = append(visible, i)
		}
		return visible
	}

	fold := cases.Fold()
	needle := fold.String(g.filter)
	for i, r := range g.records {
		if g.matches(r, fold, needle) {
			visible = append(visible, i)
		}
	}
	return visible
}

// matches reports whether needle occurs in a stored field value or in the
// rendered text of a column, so both 2024-01-15 and 15/01/2024 find a date.
func (g Grid) matches(r Record, fold cases.Caser, needle string) bool {
	for _, v := range r.Fields {
		if strings.Contains(fold.String(stringify(v)), needle) {
			return true
		}
	}
	for _, c := range g.columns {
		if c.Render == nil {
			continue
		}
		if strings.Contains(fold.String(g.Cell(r, c)), needle) {
			return true
		}
	}
	return false
}

func (g *Grid) sortVisible() {
	if g.sort.Direction == SortNone {
		return
	}
	key := g.sort.Key
	compare := g.comparator(key)
	if compare == nil {
		return
	}
	desc := g.sort.Direction == SortDescending
	sort.SliceStable(g.visible, func(i, j int) bool {
		a := g.records[g.visible[i]].Fields[key]
		b := g.records[g.visible[j]].Fields[key]
		if desc {
			return compare(b, a) < 0
		}
		return compare(a, b) < 0
	})
}

// comparator picks the comparison for a column from the kind of its values.
// Text compares by collation and booleans order true first; values of any
// other kind compare equal so their order is kept.
func (g Grid) comparator(key string) func(a, b any) int {
	var sample any
	for _, r := range g.records {
		if v := r.Fields[key]; v != nil {
			sample = v
			break
		}
	}

	switch sample.(type) {
	case string:
		col := collate.New(g.lang)
		return func(a, b any) int {
			as, _ := a.(string)
			bs, _ := b.(string)
			return col.CompareString(as, bs)
		}
	case bool:
		return func(a, b any) int {
			ab, _ := a.(bool)
			bb, _ := b.(bool)
			switch {
			case ab == bb:
				return 0
			case ab:
				return -1
			default:
				return 1
			}
		}
	default:
		return nil
	}
}

func (g Grid) pageBounds() (start, end int) {
	if len(g.visible) == 0 {
		return 0, 0
	}
	start = (g.page - 1) * g.pageSize
	end = min(start+g.pageSize, len(g.visible))
	return start, end
}

func (g Grid) copySelection() map[string]struct{} {
	selection := make(map[string]struct{}, len(g.selection)+1)
	for id := range g.selection {
		selection[id] = struct{}{}
	}
	return selection
}

func (g Grid) hasColumn(key string) bool {
	for _, c := range g.columns {
		if c.Key == key {
			return true
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
