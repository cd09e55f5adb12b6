// Package resources holds what the verb commands share about registry
// entities: table columns, record lookup, input parsing and the row actions
// of the interactive view.
package resources

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/dealerops/dealerctl/internal/cmd/common"
	"github.com/dealerops/dealerctl/internal/cmd/output/tableview"
	"github.com/dealerops/dealerctl/internal/config"
	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/format"
	"github.com/dealerops/dealerctl/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

// Display renders a stored value the way the field kind is shown to people.
func Display(f dealer.Field, v any) string {
	if v == nil {
		return ""
	}
	switch f.Kind {
	case dealer.KindDate:
		return format.Date(v)
	case dealer.KindMoney:
		return format.Currency(v)
	case dealer.KindNumber, dealer.KindInteger:
		return format.Number(v)
	case dealer.KindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "Yes"
			}
			return "No"
		}
	case dealer.KindPassword:
		return "********"
	}
	return fmt.Sprint(v)
}

// Columns maps the listed fields of e to grid columns.
func Columns(e *dealer.Entity) []tableview.Column {
	fields := e.Columns()
	cols := make([]tableview.Column, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, tableview.Column{
			Key:   f.Key,
			Label: f.Label,
			Render: func(_ tableview.Record, v any) string {
				return Display(f, v)
			},
		})
	}
	return cols
}

func Records(rows []store.Row) []tableview.Record {
	records := make([]tableview.Record, len(rows))
	for i, row := range rows {
		records[i] = tableview.Record{ID: row.ID, Fields: row.Fields}
	}
	return records
}

// Raw flattens rows for json and yaml output.
func Raw(rows []store.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = RawRow(row)
	}
	return out
}

func RawRow(row store.Row) map[string]any {
	m := make(map[string]any, len(row.Fields)+3)
	for k, v := range row.Fields {
		m[k] = v
	}
	m["id"] = row.ID
	if !row.CreatedAt.IsZero() {
		m["created_at"] = row.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !row.UpdatedAt.IsZero() {
		m["updated_at"] = row.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// Details lists every visible field of row with its label, followed by the
// record timestamps.
func Details(e *dealer.Entity, row store.Row) []tableview.DetailItem {
	fields := e.Visible()
	items := make([]tableview.DetailItem, 0, len(fields)+3)
	items = append(items, tableview.DetailItem{Label: "ID", Value: row.ID})
	for _, f := range fields {
		items = append(items, tableview.DetailItem{Label: f.Label, Value: Display(f, row.Fields[f.Key])})
	}
	if !row.CreatedAt.IsZero() {
		items = append(items, tableview.DetailItem{
			Label: "Created", Value: row.CreatedAt.In(time.Local).Format(timestampLayout),
		})
	}
	if !row.UpdatedAt.IsZero() {
		items = append(items, tableview.DetailItem{
			Label: "Updated", Value: row.UpdatedAt.In(time.Local).Format(timestampLayout),
		})
	}
	return items
}

// GridOptions reads the table settings of the profile.
func GridOptions(cfg config.Hook) []tableview.GridOption {
	opts := []tableview.GridOption{
		tableview.WithPageSize(cfg.GetIntOrElse(common.PageSizeConfigPath, common.DefaultPageSize)),
	}
	if locale := strings.TrimSpace(cfg.GetString(common.TableLocaleConfigPath)); locale != "" {
		if tag, err := language.Parse(locale); err == nil {
			opts = append(opts, tableview.WithLanguage(tag))
		}
	}
	return opts
}

// NewGrid builds the grid of e's records.
func NewGrid(e *dealer.Entity, rows []store.Row, opts ...tableview.GridOption) tableview.Grid {
	return tableview.NewGrid(Columns(e), Records(rows), opts...)
}
