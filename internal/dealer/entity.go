package dealer

import (
	"sort"
	"strings"

	"github.com/dealerops/dealerctl/internal/store"
)

// Kind is the value type of a field. It decides how input is parsed, how the
// value is validated and stored, and how it is displayed.
type Kind int

const (
	KindString Kind = iota
	KindText
	KindEmail
	KindPhone
	KindDate
	KindMoney
	KindNumber
	KindInteger
	KindEnum
	KindBool
	KindPassword
)

func (k Kind) String() string {
	return [...]string{
		"string", "text", "email", "phone", "date", "money",
		"number", "integer", "enum", "bool", "password",
	}[k]
}

func (k Kind) columnType() store.ColumnType {
	switch k {
	case KindMoney, KindNumber:
		return store.Real
	case KindInteger:
		return store.Integer
	case KindBool:
		return store.Bool
	default:
		return store.Text
	}
}

type Field struct {
	Key      string
	Label    string
	Kind     Kind
	Required bool
	Unique   bool
	Options  []string
	Default  any
	// Min is the smallest accepted value for numeric kinds. Numeric fields
	// without a Min reject negative values.
	Min *float64
	// Pattern is a regular expression string values must match; PatternHint
	// is shown instead of the expression when they do not.
	Pattern     string
	PatternHint string
	// Hidden fields are write-only: never listed, exported or shown.
	Hidden bool
}

// Capabilities are the row actions an entity supports beyond viewing.
type Capabilities struct {
	Edit    bool
	Delete  bool
	Approve bool
	Cancel  bool
}

// Entity describes one module of the console: its table, form fields and
// permitted actions.
type Entity struct {
	Name    string
	Plural  string
	Label   string
	Aliases []string
	Table   string
	Fields  []Field
	// TitleField identifies a record to people, e.g. in messages.
	TitleField   string
	Capabilities Capabilities
	// StatusField is moved between StatusPending and the approved or
	// cancelled states by Approve and Cancel.
	StatusField string

	rules []rule
}

func (e *Entity) Field(key string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Columns returns the fields shown in tables.
func (e *Entity) Columns() []Field {
	cols := make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Hidden || f.Kind == KindText {
			continue
		}
		cols = append(cols, f)
	}
	return cols
}

// Visible returns every field that may be shown, including long text.
func (e *Entity) Visible() []Field {
	cols := make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !f.Hidden {
			cols = append(cols, f)
		}
	}
	return cols
}

// FieldKeys returns the field keys in form order.
func (e *Entity) FieldKeys() []string {
	keys := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		keys[i] = f.Key
	}
	return keys
}

func (e *Entity) Schema() store.Schema {
	cols := make([]store.Column, len(e.Fields))
	for i, f := range e.Fields {
		cols[i] = store.Column{Name: f.Key, Type: f.Kind.columnType(), Unique: f.Unique}
	}
	return store.Schema{Table: e.Table, Columns: cols}
}

// Title returns the human identifier of a record, falling back to its id.
func (e *Entity) Title(row store.Row) string {
	if e.TitleField != "" {
		if v, ok := row.Fields[e.TitleField].(string); ok && v != "" {
			return v
		}
	}
	return row.ID
}

// Redact drops hidden fields from a row.
func (e *Entity) Redact(row store.Row) store.Row {
	fields := make(map[string]any, len(row.Fields))
	for k, v := range row.Fields {
		if f, ok := e.Field(k); ok && f.Hidden {
			continue
		}
		fields[k] = v
	}
	row.Fields = fields
	return row
}

// Registry is the set of entities the console manages.
type Registry struct {
	entities []*Entity
	byName   map[string]*Entity
}

func NewRegistry(entities ...*Entity) *Registry {
	r := &Registry{byName: map[string]*Entity{}}
	for _, e := range entities {
		r.entities = append(r.entities, e)
		for _, name := range append([]string{e.Name, e.Plural}, e.Aliases...) {
			r.byName[normalizeName(name)] = e
		}
	}
	return r
}

// Entities returns the entities in menu order.
func (r *Registry) Entities() []*Entity {
	return append([]*Entity(nil), r.entities...)
}

// Lookup resolves a name, plural or alias, ignoring case and separators.
func (r *Registry) Lookup(name string) (*Entity, bool) {
	e, ok := r.byName[normalizeName(name)]
	return e, ok
}

// Names returns every accepted entity name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entities))
	for _, e := range r.entities {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Schemas() []store.Schema {
	schemas := make([]store.Schema, len(r.entities))
	for i, e := range r.entities {
		schemas[i] = e.Schema()
	}
	return schemas
}

func normalizeName(name string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(name)))
}
