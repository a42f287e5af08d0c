package validation

import (
	"errors"
	"strings"
)

// Violation is a single broken field rule.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Error carries every violation found for one candidate entity.
type Error struct {
	Violations []Violation
}

func New(violations ...Violation) *Error {
	return &Error{Violations: violations}
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Violations))

	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}

	return strings.Join(msgs, "; ")
}

// Has reports whether field broke the given rule. An empty rule matches any rule.
func (e *Error) Has(field, rule string) bool {
	for _, v := range e.Violations {
		if v.Field == field && (rule == "" || v.Rule == rule) {
			return true
		}
	}

	return false
}

func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}

	return nil, false
}

// Append adds violations to err, which must be nil or a *Error. Any other
// error is returned untouched.
func Append(err error, violations ...Violation) error {
	if err == nil {
		if len(violations) == 0 {
			return nil
		}
		return New(violations...)
	}

	verr, ok := As(err)
	if !ok {
		return err
	}

	verr.Violations = append(verr.Violations, violations...)

	return verr
}
