package tableview

import "context"

// Action is a row-scoped operation offered by the interactive view.
type Action int

const (
	ActionView Action = iota
	ActionEdit
	ActionApprove
	ActionCancel
	ActionDelete
)

func (a Action) String() string {
	return [...]string{"view", "edit", "approve", "cancel", "delete"}[a]
}

func (a Action) Title() string {
	return [...]string{"View", "Edit", "Approve", "Cancel", "Delete"}[a]
}

// Progress describes the action while it runs.
func (a Action) Progress() string {
	return [...]string{"Loading", "Saving", "Approving", "Cancelling", "Deleting"}[a]
}

// Key is the key binding that triggers the action.
func (a Action) Key() string {
	return [...]string{"v", "e", "A", "C", "d"}[a]
}

// Capabilities decide which row actions a table offers.
type Capabilities struct {
	CanView    bool
	CanEdit    bool
	CanDelete  bool
	CanApprove bool
	CanCancel  bool
}

// Actions lists the enabled actions in menu order.
func (c Capabilities) Actions() []Action {
	var actions []Action
	for _, a := range []struct {
		action  Action
		enabled bool
	}{
		{ActionView, c.CanView},
		{ActionEdit, c.CanEdit},
		{ActionApprove, c.CanApprove},
		{ActionCancel, c.CanCancel},
		{ActionDelete, c.CanDelete},
	} {
		if a.enabled {
			actions = append(actions, a.action)
		}
	}
	return actions
}

func (c Capabilities) Allows(a Action) bool {
	for _, enabled := range c.Actions() {
		if enabled == a {
			return true
		}
	}
	return false
}

// Result is the outcome of a mutation. Failures carry a message meant for
// the user and, for validation problems, errors keyed by field.
type Result struct {
	Success     bool
	Message     string
	FieldErrors map[string]string
}

// DetailItem is one labelled value of a record's detail view.
type DetailItem struct {
	Label string
	Value string
}

// FormField is one input of the edit form.
type FormField struct {
	Key         string
	Label       string
	Value       string
	Placeholder string
	// Secret inputs are masked and start empty; leaving them empty keeps the
	// stored value.
	Secret bool
}

// RowActions connects the interactive view to the owner of the records.
// Mutations return a Result and never an error: every failure is reduced to
// a message before it reaches the view.
type RowActions interface {
	Capabilities() Capabilities
	Detail(ctx context.Context, id string) ([]DetailItem, error)
	EditFields(ctx context.Context, id string) ([]FormField, error)
	// Validate reports field errors for values without saving them.
	Validate(ctx context.Context, id string, values map[string]string) map[string]string
	Update(ctx context.Context, id string, values map[string]string) Result
	Delete(ctx context.Context, id string) Result
	Approve(ctx context.Context, id string) Result
	Cancel(ctx context.Context, id string) Result
	Reload(ctx context.Context) ([]Record, error)
}
