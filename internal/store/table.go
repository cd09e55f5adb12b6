package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dealerops/dealerctl/internal/log"
	"github.com/google/uuid"
)

// Row is one stored record. Fields holds only non-NULL columns, typed by
// the column's ColumnType (string, float64, int64 or bool).
type Row struct {
	ID        string         `json:"id"         yaml:"id"`
	Fields    map[string]any `json:"fields"     yaml:"fields"`
	CreatedAt time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" yaml:"updated_at"`
}

// timestampLayout has a fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Op is a comparison used by Filter.
type Op string

const (
	OpEq  Op = "="
	OpNe  Op = "<>"
	OpGte Op = ">="
	OpLte Op = "<="
)

type Filter struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Filter  { return Filter{Column: column, Op: OpEq, Value: value} }
func Ne(column string, value any) Filter  { return Filter{Column: column, Op: OpNe, Value: value} }
func Gte(column string, value any) Filter { return Filter{Column: column, Op: OpGte, Value: value} }
func Lte(column string, value any) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// Table is the data access object for one entity table.
type Table struct {
	schema Schema
	q      queryer
	logger *slog.Logger
	now    func() time.Time
}

func (t *Table) Schema() Schema {
	return t.schema
}

// List returns every row in insertion order.
func (t *Table) List(ctx context.Context) ([]Row, error) {
	return t.Where(ctx)
}

// Where returns the rows matching all filters, in insertion order.
func (t *Table) Where(ctx context.Context, filters ...Filter) ([]Row, error) {
	where, args, err := t.whereClause(filters)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY rowid",
		t.schema.selectColumns(), quote(t.schema.Table), where)
	t.trace(ctx, query, args)

	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.schema.Table, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		row, err := t.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.schema.Table, err)
	}
	return result, nil
}

// FindBy returns the rows whose column equals value.
func (t *Table) FindBy(ctx context.Context, column string, value any) ([]Row, error) {
	return t.Where(ctx, Eq(column, value))
}

// Get returns the row with id or ErrNotFound.
func (t *Table) Get(ctx context.Context, id string) (Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", t.schema.selectColumns(), quote(t.schema.Table))
	t.trace(ctx, query, []any{id})

	row, err := t.scan(t.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("%s %s: %w", t.schema.Table, id, ErrNotFound)
	}
	if err != nil {
		return Row{}, err
	}
	return row, nil
}

// Create inserts a row with a new id and returns it as stored.
func (t *Table) Create(ctx context.Context, fields map[string]any) (Row, error) {
	id := uuid.NewString()
	now := t.timestamp()

	cols := []string{quote("id"), quote("created_at"), quote("updated_at")}
	args := []any{id, now, now}
	for _, key := range sortedKeys(fields) {
		col, err := t.dataColumn(key)
		if err != nil {
			return Row{}, err
		}
		cols = append(cols, quote(key))
		args = append(args, toSQL(col, fields[key]))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quote(t.schema.Table),
		strings.Join(cols, ", "), placeholders(len(cols)))
	t.trace(ctx, query, args)

	if _, err := t.q.ExecContext(ctx, query, args...); err != nil {
		return Row{}, fmt.Errorf("failed to create %s: %w", t.schema.Table, mapError(err))
	}
	return t.Get(ctx, id)
}

// Update sets the given fields on the row with id. Fields not present in
// the map are left untouched; a nil value clears the column.
func (t *Table) Update(ctx context.Context, id string, fields map[string]any) (Row, error) {
	sets := []string{quote("updated_at") + " = ?"}
	args := []any{t.timestamp()}
	for _, key := range sortedKeys(fields) {
		col, err := t.dataColumn(key)
		if err != nil {
			return Row{}, err
		}
		sets = append(sets, quote(key)+" = ?")
		args = append(args, toSQL(col, fields[key]))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", quote(t.schema.Table), strings.Join(sets, ", "))
	t.trace(ctx, query, args)

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return Row{}, fmt.Errorf("failed to update %s %s: %w", t.schema.Table, id, mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Row{}, fmt.Errorf("%s %s: %w", t.schema.Table, id, ErrNotFound)
	}
	return t.Get(ctx, id)
}

// UpdateAllExcept sets column to value on every row other than exceptID whose
// value differs, returning the number of rows changed.
func (t *Table) UpdateAllExcept(ctx context.Context, column string, value any, exceptID string) (int, error) {
	col, err := t.dataColumn(column)
	if err != nil {
		return 0, err
	}
	v := toSQL(col, value)
	query := fmt.Sprintf("UPDATE %s SET %s = ?, updated_at = ? WHERE id <> ? AND %s IS NOT ?",
		quote(t.schema.Table), quote(column), quote(column))
	args := []any{v, t.timestamp(), exceptID, v}
	t.trace(ctx, query, args)

	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", t.schema.Table, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Delete removes the row with id or returns ErrNotFound.
func (t *Table) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", quote(t.schema.Table))
	t.trace(ctx, query, []any{id})

	res, err := t.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", t.schema.Table, id, mapError(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s %s: %w", t.schema.Table, id, ErrNotFound)
	}
	return nil
}

// Count returns the number of rows matching all filters.
func (t *Table) Count(ctx context.Context, filters ...Filter) (int, error) {
	var n int
	err := t.aggregate(ctx, "COUNT(*)", filters, &n)
	return n, err
}

// CountBy returns the number of rows whose column equals value.
func (t *Table) CountBy(ctx context.Context, column string, value any) (int, error) {
	return t.Count(ctx, Eq(column, value))
}

// Sum totals a numeric column over the rows matching all filters.
func (t *Table) Sum(ctx context.Context, column string, filters ...Filter) (float64, error) {
	if _, err := t.dataColumn(column); err != nil {
		return 0, err
	}
	var total float64
	err := t.aggregate(ctx, fmt.Sprintf("COALESCE(SUM(%s), 0)", quote(column)), filters, &total)
	return total, err
}

func (t *Table) aggregate(ctx context.Context, expr string, filters []Filter, dest any) error {
	where, args, err := t.whereClause(filters)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT %s FROM %s%s", expr, quote(t.schema.Table), where)
	t.trace(ctx, query, args)
	if err := t.q.QueryRowContext(ctx, query, args...).Scan(dest); err != nil {
		return fmt.Errorf("failed to query %s: %w", t.schema.Table, err)
	}
	return nil
}

func (t *Table) whereClause(filters []Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	conds := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		col, ok := t.schema.column(f.Column)
		if !ok {
			return "", nil, fmt.Errorf("unknown column %q for %s", f.Column, t.schema.Table)
		}
		switch f.Op {
		case OpEq, OpNe, OpGte, OpLte:
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
		conds = append(conds, fmt.Sprintf("%s %s ?", quote(f.Column), f.Op))
		args = append(args, toSQL(col, f.Value))
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func (t *Table) dataColumn(name string) (Column, error) {
	if reservedColumns[name] {
		return Column{}, fmt.Errorf("column %q of %s cannot be written", name, t.schema.Table)
	}
	col, ok := t.schema.column(name)
	if !ok {
		return Column{}, fmt.Errorf("unknown column %q for %s", name, t.schema.Table)
	}
	return col, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *Table) scan(s scanner) (Row, error) {
	var (
		row              Row
		created, updated string
		values           = make([]any, len(t.schema.Columns))
		dest             = make([]any, 0, len(values)+3)
	)
	dest = append(dest, &row.ID, &created, &updated)
	for i := range values {
		dest = append(dest, &values[i])
	}
	if err := s.Scan(dest...); err != nil {
		return Row{}, err
	}

	row.CreatedAt, _ = time.Parse(timestampLayout, created)
	row.UpdatedAt, _ = time.Parse(timestampLayout, updated)
	row.Fields = make(map[string]any, len(values))
	for i, col := range t.schema.Columns {
		if v := fromSQL(col, values[i]); v != nil {
			row.Fields[col.Name] = v
		}
	}
	return row, nil
}

func (t *Table) timestamp() string {
	return t.now().UTC().Format(timestampLayout)
}

func (t *Table) trace(ctx context.Context, query string, args []any) {
	t.logger.Log(ctx, log.LevelTrace, "sql", "query", query, "args", len(args))
}

func toSQL(col Column, v any) any {
	if v == nil {
		return nil
	}
	if col.Type == Bool {
		if b, ok := v.(bool); ok {
			if b {
				return int64(1)
			}
			return int64(0)
		}
	}
	return v
}

func fromSQL(col Column, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case int64:
		switch col.Type {
		case Bool:
			return val != 0
		case Real:
			return float64(val)
		}
		return val
	case float64:
		if col.Type == Integer {
			return int64(val)
		}
		return val
	default:
		return val
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
