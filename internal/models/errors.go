package models

import (
	"strings"
)

// FieldError is one human-readable message attached to a field key.
type FieldError struct {
	Field   string
	Message string
}

// FullMessage renders the message with its field prefix ("Identities No
// identities present"). Messages on "base" render without a prefix.
func (e FieldError) FullMessage() string {
	if e.Field == "base" {
		return e.Message
	}
	return titleize(e.Field) + " " + e.Message
}

// FieldErrors is an ordered collection of field-keyed messages. It is used
// both for validation errors and for non-fatal data-quality warnings.
// Insertion order is preserved so joined output is deterministic.
type FieldErrors []FieldError

// Add appends a message under the given field key.
func (e *FieldErrors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Any reports whether any message has been recorded.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// On returns the messages recorded under the given field key.
func (e FieldErrors) On(field string) []string {
	var messages []string
	for _, err := range e {
		if err.Field == field {
			messages = append(messages, err.Message)
		}
	}
	return messages
}

// FullMessages returns all messages rendered with their field prefixes, in
// insertion order.
func (e FieldErrors) FullMessages() []string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.FullMessage())
	}
	return messages
}

// Join renders all full messages as a single comma-separated string for
// logging and telemetry.
func (e FieldErrors) Join() string {
	return strings.Join(e.FullMessages(), ", ")
}

func titleize(field string) string {
	if field == "" {
		return ""
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
