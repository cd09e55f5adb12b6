package dealer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dealerops/dealerctl/internal/format"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const passwordMinLength = 8

// FieldErrors maps a field key to what is wrong with its value. The empty key
// holds problems that do not belong to a single field.
type FieldErrors map[string]string

// Add records msg for key unless the field already has an error.
func (fe FieldErrors) Add(key, msg string) {
	if _, ok := fe[key]; !ok {
		fe[key] = msg
	}
}

func (fe FieldErrors) Merge(other FieldErrors) {
	for k, v := range other {
		fe.Add(k, v)
	}
}

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		if k == "" {
			parts[i] = fe[k]
			continue
		}
		parts[i] = k + ": " + fe[k]
	}
	return strings.Join(parts, "; ")
}

// Input is a set of raw field values from a form, flags or an import file.
// Strings are parsed according to the field kind; already typed values are
// checked. An empty string or nil clears the field.
type Input map[string]any

// coerce converts input into typed values keyed by field. Cleared fields map
// to nil.
func coerce(e *Entity, input Input) (map[string]any, FieldErrors) {
	values := make(map[string]any, len(input))
	errs := FieldErrors{}

	for key, raw := range input {
		field, ok := e.Field(key)
		if !ok {
			errs.Add(key, "is not a known field")
			continue
		}
		if s, ok := raw.(string); ok {
			raw = strings.TrimSpace(s)
			if raw == "" {
				raw = nil
			}
		}
		if raw == nil {
			values[key] = nil
			continue
		}
		v, msg := coerceValue(field, raw)
		if msg != "" {
			errs.Add(key, msg)
			continue
		}
		values[key] = v
	}
	return values, errs
}

func coerceValue(f Field, raw any) (any, string) {
	switch f.Kind {
	case KindDate:
		s, ok := raw.(string)
		if !ok {
			return nil, "must be a date (DD/MM/YYYY)"
		}
		d, err := format.NormalizeDate(s)
		if err != nil {
			return nil, "must be a date (DD/MM/YYYY)"
		}
		return d, ""
	case KindMoney, KindNumber:
		if s, ok := raw.(string); ok {
			raw = strings.TrimPrefix(s, format.RupeeSymbol)
		}
		n, ok := format.ToFloat(raw)
		if !ok {
			return nil, "must be a number"
		}
		return n, ""
	case KindInteger:
		switch v := raw.(type) {
		case string:
			n, err := strconv.ParseInt(strings.ReplaceAll(v, ",", ""), 10, 64)
			if err != nil {
				return nil, "must be a whole number"
			}
			return n, ""
		default:
			n, ok := format.ToFloat(v)
			if !ok || n != float64(int64(n)) {
				return nil, "must be a whole number"
			}
			return int64(n), ""
		}
	case KindBool:
		switch v := raw.(type) {
		case bool:
			return v, ""
		case string:
			switch strings.ToLower(v) {
			case "true", "yes", "y", "1":
				return true, ""
			case "false", "no", "n", "0":
				return false, ""
			}
		}
		return nil, "must be true or false"
	case KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, "must be one of " + strings.Join(f.Options, ", ")
		}
		for _, opt := range f.Options {
			if strings.EqualFold(opt, s) {
				return opt, ""
			}
		}
		return s, ""
	default:
		s, ok := raw.(string)
		if !ok {
			return fmt.Sprint(raw), ""
		}
		if f.Kind == KindEmail {
			s = strings.ToLower(s)
		}
		return s, ""
	}
}

// validator checks complete records against the JSON Schema generated from
// an entity's fields.
type validator struct {
	entity *Entity
	schema *jsonschema.Schema
}

func newValidator(e *Entity) (*validator, error) {
	raw, err := json.Marshal(schemaDocument(e))
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	url := "https://schemas.dealerctl.dev/" + e.Name + ".json"
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", e.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for %s: %w", e.Name, err)
	}
	return &validator{entity: e, schema: sch}, nil
}

// schemaDocument renders the entity's fields as a JSON Schema object.
func schemaDocument(e *Entity) map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, f := range e.Fields {
		props[f.Key] = fieldSchema(f)
		if f.Required {
			required = append(required, f.Key)
		}
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                e.Label,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func fieldSchema(f Field) map[string]any {
	s := map[string]any{"title": f.Label}
	switch f.Kind {
	case KindMoney, KindNumber, KindInteger:
		s["type"] = "number"
		if f.Kind == KindInteger {
			s["type"] = "integer"
		}
		minimum := 0.0
		if f.Min != nil {
			minimum = *f.Min
		}
		s["minimum"] = minimum
	case KindBool:
		s["type"] = "boolean"
	case KindEnum:
		s["type"] = "string"
		s["enum"] = f.Options
	case KindDate:
		s["type"] = "string"
		s["pattern"] = `^[0-9]{4}-[0-9]{2}-[0-9]{2}$`
	case KindEmail:
		s["type"] = "string"
		s["format"] = "email"
	case KindPassword:
		s["type"] = "string"
		s["minLength"] = passwordMinLength
	default:
		s["type"] = "string"
	}
	if f.Pattern != "" {
		s["pattern"] = f.Pattern
	}
	return s
}

// Validate checks a complete record (nil values already removed).
func (v *validator) Validate(record map[string]any) FieldErrors {
	err := v.schema.Validate(record)
	if err == nil {
		return nil
	}
	errs := FieldErrors{}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		errs.Add("", err.Error())
		return errs
	}
	v.collect(ve, errs)
	return errs
}

var englishPrinter = message.NewPrinter(language.English)

func (v *validator) collect(ve *jsonschema.ValidationError, errs FieldErrors) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			v.collect(cause, errs)
		}
		return
	}

	switch k := ve.ErrorKind.(type) {
	case *kind.Required:
		for _, key := range k.Missing {
			errs.Add(key, "is required")
		}
		return
	case *kind.AdditionalProperties:
		for _, key := range k.Properties {
			errs.Add(key, "is not a known field")
		}
		return
	}

	key := ""
	if len(ve.InstanceLocation) > 0 {
		key = ve.InstanceLocation[0]
	}
	field, _ := v.entity.Field(key)
	errs.Add(key, describe(field, ve.ErrorKind))
}

func describe(f Field, k jsonschema.ErrorKind) string {
	switch k := k.(type) {
	case *kind.Enum:
		return "must be one of " + strings.Join(f.Options, ", ")
	case *kind.Format:
		if k.Want == "email" {
			return "must be a valid email address"
		}
		return "must be a valid " + k.Want
	case *kind.Pattern:
		if f.Kind == KindDate {
			return "must be a date (DD/MM/YYYY)"
		}
		if f.PatternHint != "" {
			return "must be " + f.PatternHint
		}
		return "has an invalid format"
	case *kind.Minimum:
		if f.Min == nil || *f.Min == 0 {
			return "must not be negative"
		}
		return "must be at least " + strconv.FormatFloat(*f.Min, 'f', -1, 64)
	case *kind.MinLength:
		return fmt.Sprintf("must be at least %d characters", k.Want)
	case *kind.Type:
		switch f.Kind {
		case KindInteger:
			return "must be a whole number"
		case KindMoney, KindNumber:
			return "must be a number"
		case KindBool:
			return "must be true or false"
		}
		return "must be text"
	default:
		return k.LocalizedString(englishPrinter)
	}
}
