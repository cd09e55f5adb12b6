package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dealerops/dealerctl/internal/dealer"
	"github.com/dealerops/dealerctl/internal/store"
	"github.com/dealerops/dealerctl/internal/util"
)

// ErrAmbiguous is returned when a name matches more than one record.
var ErrAmbiguous = errors.New("matches more than one record, use the ID")

// Find resolves ref to a record. A UUID is looked up directly; anything else
// is matched case-insensitively against the entity's title field.
func Find(ctx context.Context, svc *dealer.Service, e *dealer.Entity, ref string) (store.Row, error) {
	ref = strings.TrimSpace(ref)
	if util.IsValidUUID(ref) {
		row, err := svc.Get(ctx, e, ref)
		if err == nil || !errors.Is(err, store.ErrNotFound) || e.TitleField == "" {
			return row, err
		}
	}
	if e.TitleField == "" {
		return store.Row{}, fmt.Errorf("%s %s: %w", e.Label, ref, store.ErrNotFound)
	}

	rows, err := svc.List(ctx, e)
	if err != nil {
		return store.Row{}, err
	}
	var matches []store.Row
	for _, row := range rows {
		if title, ok := row.Fields[e.TitleField].(string); ok && strings.EqualFold(title, ref) {
			matches = append(matches, row)
		}
	}
	switch len(matches) {
	case 0:
		return store.Row{}, fmt.Errorf("%s %s: %w", e.Label, ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return store.Row{}, fmt.Errorf("%s %q %w", e.Label, ref, ErrAmbiguous)
	}
}
