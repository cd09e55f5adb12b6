package resources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/store"
)

type plainHasher struct{}

func (plainHasher) HashPassword(plain string) (string, error) {
	return "hashed:" + plain, nil
}

func newService(t *testing.T) *dealer.Service {
	t.Helper()
	svc, _ := newServiceWithDB(t)
	return svc
}

func newServiceWithDB(t *testing.T) (*dealer.Service, *store.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.MemoryPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	svc, err := dealer.NewService(ctx, db, dealer.DefaultRegistry(), dealer.WithPasswordHasher(plainHasher{}))
	require.NoError(t, err)
	return svc, db
}

func lookup(t *testing.T, svc *dealer.Service, name string) *dealer.Entity {
	t.Helper()
	e, ok := svc.Registry().Lookup(name)
	require.True(t, ok, name)
	return e
}

func create(t *testing.T, svc *dealer.Service, e *dealer.Entity, in dealer.Input) string {
	t.Helper()
	env := svc.Create(context.Background(), e, in)
	require.True(t, env.Success, "%s %v", env.Message, env.FieldErrors)
	return env.ID
}

func TestParseSet(t *testing.T) {
	in, err := ParseSet([]string{"name=Acme Motors", " city =Pune", "gstin=", "note=a=b"})
	require.NoError(t, err)
	assert.Equal(t, dealer.Input{
		"name":  "Acme Motors",
		"city":  "Pune",
		"gstin": "",
		"note":  "a=b",
	}, in)

	_, err = ParseSet([]string{"name"})
	assert.ErrorContains(t, err, "expected key=value")

	_, err = ParseSet([]string{"=value"})
	assert.Error(t, err)
}

func TestReadInputSetOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "supplier.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: From File\ncity: Pune\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddInputFlags(flags)
	require.NoError(t, flags.Parse([]string{"-f", path, "--set", "name=From Flag"}))

	in, err := ReadInput(flags, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, dealer.Input{"name": "From Flag", "city": "Pune"}, in)
}

func TestReadInputFileFromStdin(t *testing.T) {
	in, err := ReadInputFile("-", strings.NewReader(`{"name": "Red", "code": "R1"}`))
	require.NoError(t, err)
	assert.Equal(t, dealer.Input{"name": "Red", "code": "R1"}, in)

	in, err = ReadInputFile("-", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, in)

	_, err = ReadInputFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorContains(t, err, "failed to read")
}

func TestFind(t *testing.T) {
	svc := newService(t)
	suppliers := lookup(t, svc, "supplier")
	id := create(t, svc, suppliers, dealer.Input{"name": "Acme Motors"})
	create(t, svc, suppliers, dealer.Input{"name": "Zenith Autos"})
	ctx := context.Background()

	row, err := Find(ctx, svc, suppliers, id)
	require.NoError(t, err)
	assert.Equal(t, "Acme Motors", row.Fields["name"])

	row, err = Find(ctx, svc, suppliers, "  acme MOTORS ")
	require.NoError(t, err)
	assert.Equal(t, id, row.ID)

	_, err = Find(ctx, svc, suppliers, "Nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = Find(ctx, svc, suppliers, "0b0f5f5e-3f61-4f2f-9b8e-2a0a5f1b7c11")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindAmbiguousTitle(t *testing.T) {
	svc := newService(t)
	employees := lookup(t, svc, "employee")
	create(t, svc, employees, dealer.Input{"code": "E1", "name": "Ravi Kumar"})
	create(t, svc, employees, dealer.Input{"code": "E2", "name": "Ravi Kumar"})

	_, err := Find(context.Background(), svc, employees, "ravi kumar")
	assert.ErrorIs(t, err, ErrAmbiguous)
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name  string
		field dealer.Field
		in    any
		want  string
	}{
		{name: "date", field: dealer.Field{Kind: dealer.KindDate}, in: "2024-03-05", want: "05/03/2024"},
		{name: "money", field: dealer.Field{Kind: dealer.KindMoney}, in: 250000.0, want: "₹2,50,000.00"},
		{name: "yes", field: dealer.Field{Kind: dealer.KindBool}, in: true, want: "Yes"},
		{name: "no", field: dealer.Field{Kind: dealer.KindBool}, in: false, want: "No"},
		{name: "password", field: dealer.Field{Kind: dealer.KindPassword}, in: "hashed:x", want: "********"},
		{name: "string", field: dealer.Field{Kind: dealer.KindString}, in: "Swift", want: "Swift"},
		{name: "nil", field: dealer.Field{Kind: dealer.KindMoney}, in: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.field, tt.in))
		})
	}
}

func TestEditValueParsesBack(t *testing.T) {
	assert.Equal(t, "05/03/2024", editValue(dealer.Field{Kind: dealer.KindDate}, "2024-03-05"))
	assert.Equal(t, "649000", editValue(dealer.Field{Kind: dealer.KindMoney}, 649000.0))
	assert.Equal(t, "1234.5", editValue(dealer.Field{Kind: dealer.KindMoney}, 1234.5))
	assert.Equal(t, "true", editValue(dealer.Field{Kind: dealer.KindBool}, true))
	assert.Equal(t, "false", editValue(dealer.Field{Kind: dealer.KindBool}, nil))
	assert.Equal(t, "", editValue(dealer.Field{Kind: dealer.KindString}, nil))
}

func TestRowActionsEditRoundTrip(t *testing.T) {
	svc := newService(t)
	vehicles := lookup(t, svc, "vehicle")
	id := create(t, svc, vehicles, dealer.Input{
		"chassis_no":    "MA3-0001",
		"model":         "Swift",
		"price":         "649000",
		"purchase_date": "15/01/2024",
	})
	actions := NewRowActions(svc, vehicles)
	ctx := context.Background()

	caps := actions.Capabilities()
	assert.True(t, caps.CanEdit)
	assert.True(t, caps.CanDelete)
	assert.False(t, caps.CanApprove)

	fields, err := actions.EditFields(ctx, id)
	require.NoError(t, err)
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	assert.Equal(t, "15/01/2024", values["purchase_date"])
	assert.Equal(t, "649000", values["price"])

	assert.Nil(t, actions.Validate(ctx, id, values))
	values["model"] = "Baleno"
	res := actions.Update(ctx, id, values)
	require.True(t, res.Success, res.Message)

	row, err := svc.Get(ctx, vehicles, id)
	require.NoError(t, err)
	assert.Equal(t, "Baleno", row.Fields["model"])
	assert.Equal(t, 649000.0, row.Fields["price"])
	assert.Equal(t, "2024-01-15", row.Fields["purchase_date"])
}

func TestRowActionsKeepsPasswordWhenEmpty(t *testing.T) {
	svc, db := newServiceWithDB(t)
	users := lookup(t, svc, dealer.UserEntityName)
	id := create(t, svc, users, dealer.Input{
		"username":  "asha",
		"full_name": "Asha Rao",
		"password":  "s3cret-pass",
	})
	actions := NewRowActions(svc, users)
	ctx := context.Background()

	fields, err := actions.EditFields(ctx, id)
	require.NoError(t, err)
	values := map[string]string{}
	for _, f := range fields {
		if f.Key == "password" {
			assert.True(t, f.Secret)
			assert.Empty(t, f.Value)
		}
		values[f.Key] = f.Value
	}

	assert.Nil(t, actions.Validate(ctx, id, values))
	values["full_name"] = "Asha R."
	res := actions.Update(ctx, id, values)
	require.True(t, res.Success, res.Message)

	stored, err := db.Table(users.Schema()).Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hashed:s3cret-pass", stored.Fields["password"])
	assert.Equal(t, "Asha R.", stored.Fields["full_name"])
}

func TestDetailsHidePasswords(t *testing.T) {
	svc := newService(t)
	users := lookup(t, svc, dealer.UserEntityName)
	id := create(t, svc, users, dealer.Input{
		"username":  "asha",
		"full_name": "Asha Rao",
		"password":  "s3cret-pass",
	})
	row, err := svc.Get(context.Background(), users, id)
	require.NoError(t, err)

	items := Details(users, row)
	require.NotEmpty(t, items)
	assert.Equal(t, "ID", items[0].Label)
	assert.Equal(t, id, items[0].Value)
	for _, item := range items {
		assert.NotEqual(t, "Password", item.Label)
		assert.NotContains(t, item.Value, "s3cret")
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	svc := newService(t)
	vehicles := lookup(t, svc, "vehicle")
	create(t, svc, vehicles, dealer.Input{
		"chassis_no": "MA3-0001",
		"model":      "Swift",
		"price":      "1500000",
	})
	rows, err := svc.List(context.Background(), vehicles)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, vehicles, NewDocument(vehicles, rows)))
	out := buf.String()
	assert.NotContains(t, out, "id:")
	assert.Contains(t, out, "price: 1500000\n")
	assert.Less(t, strings.Index(out, "chassis_no"), strings.Index(out, "model"))

	doc, err := ReadDocument(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "vehicle", doc.Entity)
	require.Len(t, doc.Records, 1)
	assert.Equal(t, "MA3-0001", doc.Records[0]["chassis_no"])

	other := newService(t)
	env := other.Create(context.Background(), lookup(t, other, doc.Entity), dealer.Input(doc.Records[0]))
	assert.True(t, env.Success, env.Message)
}

func TestReadDocumentRequiresEntity(t *testing.T) {
	_, err := ReadDocument([]byte("records: []\n"))
	assert.ErrorContains(t, err, "entity is required")

	_, err = ReadDocument([]byte("entity: color\nunknown: 1\n"))
	assert.Error(t, err)
}
