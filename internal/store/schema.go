package store

import (
	"fmt"
	"regexp"
	"strings"
)

type ColumnType int

const (
	Text ColumnType = iota
	Real
	Integer
	Bool
)

func (t ColumnType) sqlType() string {
	switch t {
	case Real:
		return "REAL"
	case Integer, Bool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

type Column struct {
	Name   string
	Type   ColumnType
	Unique bool
}

type Schema struct {
	Table   string
	Columns []Column
}

var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

var reservedColumns = map[string]bool{"id": true, "created_at": true, "updated_at": true}

// Validate checks that every identifier is safe to interpolate into SQL.
func (s Schema) Validate() error {
	if !identPattern.MatchString(s.Table) {
		return fmt.Errorf("invalid table name %q", s.Table)
	}
	seen := map[string]bool{}
	for _, c := range s.Columns {
		if !identPattern.MatchString(c.Name) {
			return fmt.Errorf("invalid column name %q in table %s", c.Name, s.Table)
		}
		if reservedColumns[c.Name] {
			return fmt.Errorf("column name %q is reserved in table %s", c.Name, s.Table)
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %q in table %s", c.Name, s.Table)
		}
		seen[c.Name] = true
	}
	return nil
}

func (s Schema) column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	if reservedColumns[name] {
		return Column{Name: name, Type: Text}, true
	}
	return Column{}, false
}

func (s Schema) createTableSQL() string {
	defs := []string{
		`"id" TEXT PRIMARY KEY`,
		`"created_at" TEXT NOT NULL`,
		`"updated_at" TEXT NOT NULL`,
	}
	for _, c := range s.Columns {
		defs = append(defs, c.definition())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", quote(s.Table), strings.Join(defs, ",\n  "))
}

// indexSQL returns unique index statements; indexes are used instead of
// column UNIQUE constraints so that they can be added to existing tables.
func (s Schema) indexSQL() []string {
	var stmts []string
	for _, c := range s.Columns {
		if !c.Unique {
			continue
		}
		stmts = append(stmts, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			quote("ux_"+s.Table+"_"+c.Name), quote(s.Table), quote(c.Name)))
	}
	return stmts
}

func (c Column) definition() string {
	return quote(c.Name) + " " + c.Type.sqlType()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (s Schema) selectColumns() string {
	cols := []string{quote("id"), quote("created_at"), quote("updated_at")}
	for _, c := range s.Columns {
		cols = append(cols, quote(c.Name))
	}
	return strings.Join(cols, ", ")
}
