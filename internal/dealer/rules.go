package dealer

import (
	"context"
	"fmt"

	"github.com/dealerops/dealerctl/internal/store"
)

// rule enforces a cross-field or cross-record constraint. Both hooks run in
// the save transaction with table bound to it; id is empty on create.
type rule struct {
	// check inspects the merged record before it is written.
	check func(ctx context.Context, table *store.Table, e *Entity, id string, record map[string]any) (FieldErrors, error)
	// apply runs after the record was written.
	apply func(ctx context.Context, table *store.Table, saved store.Row) error
}

// uniqueNameRule rejects a value that another record already holds. The
// comparison is exact (case-sensitive) and ignores the record being edited.
func uniqueNameRule(key string) rule {
	return rule{
		check: func(ctx context.Context, table *store.Table, e *Entity, id string, record map[string]any) (FieldErrors, error) {
			value, ok := record[key]
			if !ok {
				return nil, nil
			}
			rows, err := table.FindBy(ctx, key, value)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				if row.ID != id {
					label := key
					if f, ok := e.Field(key); ok {
						label = f.Label
					}
					return FieldErrors{key: fmt.Sprintf("%s %q is already in use", label, value)}, nil
				}
			}
			return nil, nil
		},
	}
}

// dateOrderRule requires to not to be before from. Dates are stored as
// YYYY-MM-DD so string comparison orders them.
func dateOrderRule(from, to string) rule {
	return rule{
		check: func(_ context.Context, _ *store.Table, e *Entity, _ string, record map[string]any) (FieldErrors, error) {
			start, ok1 := record[from].(string)
			end, ok2 := record[to].(string)
			if !ok1 || !ok2 || end >= start {
				return nil, nil
			}
			fromLabel := from
			if f, ok := e.Field(from); ok {
				fromLabel = f.Label
			}
			return FieldErrors{to: "must not be before " + fromLabel}, nil
		},
	}
}

// singleActiveRule keeps at most one record Active: saving a record as
// Active marks every other record Inactive in the same transaction.
func singleActiveRule(key string) rule {
	return rule{
		apply: func(ctx context.Context, table *store.Table, saved store.Row) error {
			if saved.Fields[key] != StatusActive {
				return nil
			}
			_, err := table.UpdateAllExcept(ctx, key, StatusInactive, saved.ID)
			return err
		},
	}
}
