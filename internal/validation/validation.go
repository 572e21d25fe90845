// Package validation carries field-level validation failures from services
// to the HTTP boundary, where they become a 400 with a fields map.
package validation

import (
	"fmt"
	"sort"
	"strings"
)

// Error holds one message per offending field.
type Error struct {
	Fields map[string]string
}

func NewError() *Error {
	return &Error{Fields: make(map[string]string)}
}

func (e *Error) Add(field, message string) {
	e.Fields[field] = message
}

func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

// ErrOrNil returns the error, or an untyped nil when no field failed.
func (e *Error) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

func (e *Error) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fmt.Sprintf("validation failed: %s", strings.Join(fields, ", "))
}
