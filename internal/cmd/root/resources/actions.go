package resources

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dealerops/dealerctl/internal/cmd/output/tableview"
	"github.com/dealerops/dealerctl/internal/dealer"
)

// RowActions runs the interactive view's row actions against the service.
type RowActions struct {
	svc *dealer.Service
	e   *dealer.Entity
}

var _ tableview.RowActions = (*RowActions)(nil)

func NewRowActions(svc *dealer.Service, e *dealer.Entity) *RowActions {
	return &RowActions{svc: svc, e: e}
}

func (a *RowActions) Capabilities() tableview.Capabilities {
	return tableview.Capabilities{
		CanView:    true,
		CanEdit:    a.e.Capabilities.Edit,
		CanDelete:  a.e.Capabilities.Delete,
		CanApprove: a.e.Capabilities.Approve,
		CanCancel:  a.e.Capabilities.Cancel,
	}
}

func (a *RowActions) Detail(ctx context.Context, id string) ([]tableview.DetailItem, error) {
	row, err := a.svc.Get(ctx, a.e, id)
	if err != nil {
		return nil, err
	}
	return Details(a.e, row), nil
}

// EditFields lists every editable field. Password fields start empty.
func (a *RowActions) EditFields(ctx context.Context, id string) ([]tableview.FormField, error) {
	row, err := a.svc.Get(ctx, a.e, id)
	if err != nil {
		return nil, err
	}
	fields := make([]tableview.FormField, 0, len(a.e.Fields))
	for _, f := range a.e.Fields {
		ff := tableview.FormField{Key: f.Key, Label: f.Label, Placeholder: placeholder(f)}
		if f.Kind == dealer.KindPassword {
			ff.Secret = true
			ff.Placeholder = "leave empty to keep"
		} else if f.Hidden {
			continue
		} else {
			ff.Value = editValue(f, row.Fields[f.Key])
		}
		fields = append(fields, ff)
	}
	return fields, nil
}

// Validate checks a complete form. Empty secrets keep their stored value and
// are not reported.
func (a *RowActions) Validate(_ context.Context, _ string, values map[string]string) map[string]string {
	errs := a.svc.Validate(a.e, a.input(values))
	for _, f := range a.e.Fields {
		if f.Kind == dealer.KindPassword && strings.TrimSpace(values[f.Key]) == "" {
			delete(errs, f.Key)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (a *RowActions) Update(ctx context.Context, id string, values map[string]string) tableview.Result {
	return result(a.svc.Update(ctx, a.e, id, a.input(values)))
}

func (a *RowActions) Delete(ctx context.Context, id string) tableview.Result {
	return result(a.svc.Delete(ctx, a.e, id))
}

func (a *RowActions) Approve(ctx context.Context, id string) tableview.Result {
	return result(a.svc.Approve(ctx, a.e, id))
}

func (a *RowActions) Cancel(ctx context.Context, id string) tableview.Result {
	return result(a.svc.Cancel(ctx, a.e, id))
}

func (a *RowActions) Reload(ctx context.Context) ([]tableview.Record, error) {
	rows, err := a.svc.List(ctx, a.e)
	if err != nil {
		return nil, err
	}
	return Records(rows), nil
}

func (a *RowActions) input(values map[string]string) dealer.Input {
	in := make(dealer.Input, len(values))
	for k, v := range values {
		in[k] = v
	}
	return in
}

func result(env dealer.Envelope) tableview.Result {
	return tableview.Result{
		Success:     env.Success,
		Message:     env.Message,
		FieldErrors: env.FieldErrors,
	}
}

// editValue is the form text for a stored value. It must parse back to the
// same value.
func editValue(f dealer.Field, v any) string {
	if v == nil {
		if f.Kind == dealer.KindBool {
			return "false"
		}
		return ""
	}
	switch f.Kind {
	case dealer.KindDate:
		return Display(f, v)
	case dealer.KindMoney, dealer.KindNumber:
		if n, ok := v.(float64); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	case dealer.KindBool:
		if b, ok := v.(bool); ok && b {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

func placeholder(f dealer.Field) string {
	switch f.Kind {
	case dealer.KindDate:
		return "DD/MM/YYYY"
	case dealer.KindEnum:
		return strings.Join(f.Options, " | ")
	case dealer.KindBool:
		return "true | false"
	case dealer.KindMoney:
		return "amount in rupees"
	}
	return ""
}
