package forms

import (
	"sort"
	"strings"
)

// NonField keys errors that belong to the form as a whole.
const NonField = "__all__"

// Errors maps a field name to its validation messages. A non-empty Errors is
// returned as the error of a failed Validate.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Get returns the messages for field, nil when it validated.
func (e Errors) Get(field string) []string {
	return e[field]
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], " "))
	}
	return strings.Join(parts, "; ")
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
