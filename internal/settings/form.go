package settings

import (
	"context"
	"fmt"
	"net/url"
)

// FieldValue is one field of the settings page with the value to pre-fill.
type FieldValue struct {
	Field
	Value   string
	Checked bool
}

type SectionValues struct {
	Section
	Values []FieldValue
}

// Form returns the settings page with the current value of every field.
// Unset list fields show their defaults; unset checkboxes show their
// defaults, so anonymize IP is checked on a fresh install.
func (s *Store) Form(ctx context.Context) []SectionValues {
	sections := Sections()
	out := make([]SectionValues, 0, len(sections))
	for _, section := range sections {
		values := make([]FieldValue, 0, len(section.Fields))
		for _, field := range section.Fields {
			value := s.Get(ctx, field.Name)
			values = append(values, FieldValue{
				Field:   field,
				Value:   value,
				Checked: field.Kind == KindCheckbox && ToBool(value),
			})
		}
		out = append(out, SectionValues{Section: section, Values: values})
	}
	return out
}

// ApplyForm persists a submitted settings form. Every registered field is
// written: checkboxes missing from the submission are stored unchecked, text
// fields missing from it are stored empty. Unregistered form keys are ignored.
func (s *Store) ApplyForm(ctx context.Context, form url.Values) error {
	for _, field := range Fields() {
		value := form.Get(field.Name)
		if field.Kind == KindCheckbox {
			value = FromBool(ToBool(value))
		}
		if err := s.backend.SetOption(ctx, field.Name, value); err != nil {
			return fmt.Errorf("apply settings form: %w", err)
		}
	}
	return nil
}

// Set validates that name is a registered field and persists value.
func (s *Store) Set(ctx context.Context, name, value string) error {
	field, ok := LookupField(name)
	if !ok {
		return fmt.Errorf("unknown setting %q", name)
	}
	if field.Kind == KindCheckbox {
		value = FromBool(ToBool(value))
	}
	return s.backend.SetOption(ctx, name, value)
}
