package dealer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/dealerops/dealerctl/internal/store"
)

// UnexpectedErrorMessage is the only detail users see for failures that are
// neither validation problems nor known data errors.
const UnexpectedErrorMessage = "An unexpected error occurred"

const validationFailedMessage = "Please correct the highlighted fields"

// Envelope is the outcome of a mutation. It never carries a raw error: every
// failure is reduced to a message plus, for validation problems, the errors
// of the offending fields.
type Envelope struct {
	Success     bool        `json:"success"                yaml:"success"`
	Message     string      `json:"message"                yaml:"message"`
	ID          string      `json:"id,omitempty"           yaml:"id,omitempty"`
	FieldErrors FieldErrors `json:"field_errors,omitempty" yaml:"field_errors,omitempty"`
	Record      *store.Row  `json:"record,omitempty"       yaml:"record,omitempty"`
}

// PasswordHasher turns a plain password into the value stored for it.
type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

type Option func(*Service)

func WithPasswordHasher(h PasswordHasher) Option {
	return func(s *Service) { s.hasher = h }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service is the action layer over the store. Reads return errors; mutations
// return an Envelope.
type Service struct {
	db         *store.DB
	registry   *Registry
	validators map[string]*validator
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewService migrates the tables for every registered entity and compiles
// their validation schemas.
func NewService(ctx context.Context, db *store.DB, registry *Registry, opts ...Option) (*Service, error) {
	s := &Service{
		db:         db,
		registry:   registry,
		validators: map[string]*validator{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := db.Migrate(ctx, registry.Schemas()...); err != nil {
		return nil, err
	}
	for _, e := range registry.Entities() {
		v, err := newValidator(e)
		if err != nil {
			return nil, err
		}
		s.validators[e.Name] = v
	}
	return s, nil
}

func (s *Service) Registry() *Registry {
	return s.registry
}

// List returns every record of e in insertion order with hidden fields removed.
func (s *Service) List(ctx context.Context, e *Entity) ([]store.Row, error) {
	rows, err := s.db.Table(e.Schema()).List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i] = e.Redact(rows[i])
	}
	return rows, nil
}

// Get returns one record with hidden fields removed, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, e *Entity, id string) (store.Row, error) {
	row, err := s.db.Table(e.Schema()).Get(ctx, id)
	if err != nil {
		return store.Row{}, err
	}
	return e.Redact(row), nil
}

// Validate reports the field errors input would cause on create, without
// writing anything.
func (s *Service) Validate(e *Entity, input Input) FieldErrors {
	values, errs := coerce(e, input)
	errs.Merge(s.validators[e.Name].Validate(withDefaults(e, values)))
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (s *Service) Create(ctx context.Context, e *Entity, input Input) (env Envelope) {
	defer s.recoverInto(ctx, e, "create", &env)

	values, errs := coerce(e, input)
	record := withDefaults(e, values)
	errs.Merge(s.validators[e.Name].Validate(record))
	if len(errs) > 0 {
		return invalid(errs)
	}

	var saved store.Row
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		table := tx.Table(e.Schema())
		if err := s.check(ctx, table, e, "", record); err != nil {
			return err
		}
		write, err := s.hashSecrets(e, record)
		if err != nil {
			return err
		}
		if saved, err = table.Create(ctx, write); err != nil {
			return err
		}
		return s.apply(ctx, table, e, saved)
	})
	if err != nil {
		return s.failure(ctx, e, "create", "", record, err)
	}

	s.logger.InfoContext(ctx, "created record", "entity", e.Name, "id", saved.ID)
	return s.succeeded(e, saved, "created")
}

// Update changes the fields present in input. Hidden fields left empty keep
// their stored value.
func (s *Service) Update(ctx context.Context, e *Entity, id string, input Input) (env Envelope) {
	defer s.recoverInto(ctx, e, "update", &env)

	if !e.Capabilities.Edit {
		return refused(fmt.Sprintf("%s cannot be edited", e.Label))
	}

	values, errs := coerce(e, input)
	for key, v := range values {
		if f, _ := e.Field(key); f.Hidden && v == nil {
			delete(values, key)
		}
	}
	if len(errs) > 0 {
		return invalid(errs)
	}

	var saved store.Row
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		table := tx.Table(e.Schema())
		existing, err := table.Get(ctx, id)
		if err != nil {
			return err
		}

		record := make(map[string]any, len(existing.Fields)+len(values))
		for k, v := range existing.Fields {
			record[k] = v
		}
		for k, v := range values {
			if v == nil {
				delete(record, k)
				continue
			}
			record[k] = v
		}

		if errs := s.validators[e.Name].Validate(record); len(errs) > 0 {
			return errs
		}
		if err := s.check(ctx, table, e, id, record); err != nil {
			return err
		}

		write, err := s.hashSecrets(e, values)
		if err != nil {
			return err
		}
		if saved, err = table.Update(ctx, id, write); err != nil {
			return err
		}
		return s.apply(ctx, table, e, saved)
	})
	if err != nil {
		return s.failure(ctx, e, "update", id, values, err)
	}

	s.logger.InfoContext(ctx, "updated record", "entity", e.Name, "id", id)
	return s.succeeded(e, saved, "updated")
}

func (s *Service) Delete(ctx context.Context, e *Entity, id string) (env Envelope) {
	defer s.recoverInto(ctx, e, "delete", &env)

	if !e.Capabilities.Delete {
		return refused(fmt.Sprintf("%s cannot be deleted", e.Label))
	}

	table := s.db.Table(e.Schema())
	row, err := table.Get(ctx, id)
	if err == nil {
		err = table.Delete(ctx, id)
	}
	if err != nil {
		return s.failure(ctx, e, "delete", id, nil, err)
	}

	s.logger.InfoContext(ctx, "deleted record", "entity", e.Name, "id", id)
	return Envelope{
		Success: true,
		Message: fmt.Sprintf("%s %s deleted", e.Label, e.Title(row)),
		ID:      id,
	}
}

// Approve moves a pending record to Approved.
func (s *Service) Approve(ctx context.Context, e *Entity, id string) Envelope {
	return s.transition(ctx, e, id, "approve", e.Capabilities.Approve, StatusApproved, "approved")
}

// Cancel moves a pending record to Cancelled.
func (s *Service) Cancel(ctx context.Context, e *Entity, id string) Envelope {
	return s.transition(ctx, e, id, "cancel", e.Capabilities.Cancel, StatusCancelled, "cancelled")
}

func (s *Service) transition(ctx context.Context, e *Entity, id, action string, allowed bool,
	target, verb string,
) (env Envelope) {
	defer s.recoverInto(ctx, e, action, &env)

	if !allowed || e.StatusField == "" {
		return refused(fmt.Sprintf("%s records cannot be %s", e.Label, verb))
	}

	var saved store.Row
	err := s.db.InTx(ctx, func(tx *store.Tx) error {
		table := tx.Table(e.Schema())
		row, err := table.Get(ctx, id)
		if err != nil {
			return err
		}
		if current := row.Fields[e.StatusField]; current != StatusPending {
			return refusal(fmt.Sprintf("Only pending %s can be %s; %s is %v",
				strings.ToLower(e.Label)+"s", verb, e.Title(row), current))
		}
		saved, err = table.Update(ctx, id, map[string]any{e.StatusField: target})
		return err
	})
	if err != nil {
		return s.failure(ctx, e, action, id, nil, err)
	}

	s.logger.InfoContext(ctx, "changed status", "entity", e.Name, "id", id, "status", target)
	return s.succeeded(e, saved, verb)
}

func (s *Service) check(ctx context.Context, table *store.Table, e *Entity, id string, record map[string]any) error {
	errs := FieldErrors{}
	for _, r := range e.rules {
		if r.check == nil {
			continue
		}
		fe, err := r.check(ctx, table, e, id, record)
		if err != nil {
			return err
		}
		errs.Merge(fe)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) apply(ctx context.Context, table *store.Table, e *Entity, saved store.Row) error {
	for _, r := range e.rules {
		if r.apply == nil {
			continue
		}
		if err := r.apply(ctx, table, saved); err != nil {
			return err
		}
	}
	return nil
}

// hashSecrets returns a copy of values with password fields hashed.
func (s *Service) hashSecrets(e *Entity, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		f, _ := e.Field(k)
		if f.Kind == KindPassword && v != nil {
			if s.hasher == nil {
				return nil, errors.New("no password hasher configured")
			}
			hashed, err := s.hasher.HashPassword(v.(string))
			if err != nil {
				return nil, err
			}
			v = hashed
		}
		out[k] = v
	}
	return out, nil
}

// refusal is a business rule rejection whose message is shown as is.
type refusal string

func (r refusal) Error() string { return string(r) }

func (s *Service) failure(ctx context.Context, e *Entity, action, id string, values map[string]any, err error) Envelope {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return invalid(fe)
	}
	var r refusal
	if errors.As(err, &r) {
		return refused(string(r))
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		return refused(fmt.Sprintf("%s not found", e.Label))
	case errors.Is(err, store.ErrConflict):
		return s.conflict(ctx, e, id, values)
	}

	s.logger.ErrorContext(ctx, "mutation failed",
		"entity", e.Name, "action", action, "id", id, "error", err)
	return Envelope{Message: UnexpectedErrorMessage}
}

// conflict reports which unique fields collide with another record.
func (s *Service) conflict(ctx context.Context, e *Entity, id string, values map[string]any) Envelope {
	errs := FieldErrors{}
	table := s.db.Table(e.Schema())
	for _, f := range e.Fields {
		v, ok := values[f.Key]
		if !f.Unique || !ok || v == nil {
			continue
		}
		rows, err := table.FindBy(ctx, f.Key, v)
		if err != nil {
			continue
		}
		for _, row := range rows {
			if row.ID != id {
				errs.Add(f.Key, fmt.Sprintf("%s %v is already in use", f.Label, v))
			}
		}
	}
	if len(errs) == 0 {
		return refused(fmt.Sprintf("%s conflicts with an existing record", e.Label))
	}
	return invalid(errs)
}

func (s *Service) recoverInto(ctx context.Context, e *Entity, action string, env *Envelope) {
	if r := recover(); r != nil {
		s.logger.ErrorContext(ctx, "unexpected failure",
			"entity", e.Name, "action", action, "panic", fmt.Sprint(r))
		*env = Envelope{Message: UnexpectedErrorMessage}
	}
}

func (s *Service) succeeded(e *Entity, saved store.Row, verb string) Envelope {
	row := e.Redact(saved)
	return Envelope{
		Success: true,
		Message: fmt.Sprintf("%s %s %s", e.Label, e.Title(saved), verb),
		ID:      saved.ID,
		Record:  &row,
	}
}

func invalid(errs FieldErrors) Envelope {
	return Envelope{Message: validationFailedMessage, FieldErrors: errs}
}

func refused(msg string) Envelope {
	return Envelope{Message: msg}
}

// withDefaults drops cleared values and fills field defaults.
func withDefaults(e *Entity, values map[string]any) map[string]any {
	record := make(map[string]any, len(e.Fields))
	for k, v := range values {
		if v != nil {
			record[k] = v
		}
	}
	for _, f := range e.Fields {
		if _, ok := record[f.Key]; !ok && f.Default != nil {
			record[f.Key] = f.Default
		}
	}
	return record
}
