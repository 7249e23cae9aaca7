package contact

import (
	"errors"
	"strings"
)

// ErrMissingData is returned when a serialized contact lacks a name, an email
// or a phone.
var ErrMissingData = errors.New("invalid or missing contact data")

// FieldError describes one rejected form field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every field that failed validation, in form order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "contact: invalid form: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	_, ok := e.Message(field)
	return ok
}

// Message returns the message recorded for field.
func (e *ValidationError) Message(field string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message, true
		}
	}
	return "", false
}

// ByField indexes messages by field name for template rendering.
func (e *ValidationError) ByField() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Message
	}
	return out
}
