package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrIntegrity is matched by every rejected write, whatever rule it broke.
	ErrIntegrity = errors.New("integrity constraint violation")
)

// Violation is one broken rule. Field is the json name of the column and may
// be empty when the store did not say which column it was.
type Violation struct {
	Field string `json:"field,omitempty"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func (v Violation) String() string {
	s := v.Rule
	if v.Param != "" {
		s += "=" + v.Param
	}
	if v.Field != "" {
		s = v.Field + ": " + s
	}
	return s
}

type IntegrityError struct {
	Violations []Violation
	// Err is the store error behind the violation, if the store raised it.
	Err error
}

func NewIntegrityError(field, rule, param string) *IntegrityError {
	return &IntegrityError{Violations: []Violation{{Field: field, Rule: rule, Param: param}}}
}

func (e *IntegrityError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	msg := ErrIntegrity.Error()
	if len(parts) > 0 {
		msg += ": " + strings.Join(parts, ", ")
	}
	return msg
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

func (e *IntegrityError) Unwrap() error { return e.Err }

// Has reports whether the error carries a violation of rule on field.
func (e *IntegrityError) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && v.Rule == rule {
			return true
		}
	}
	return false
}

// AsIntegrity unwraps err into an *IntegrityError.
func AsIntegrity(err error) (*IntegrityError, bool) {
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
