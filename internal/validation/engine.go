package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Engine runs validator struct tags and turns the result into violations
// keyed by JSON field name.
type Engine struct {
	validate *validator.Validate
	messages map[string]string
}

// NewEngine builds an engine. messages overrides the generic text for a
// "<jsonField>.<rule>" pair.
func NewEngine(messages map[string]string) *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	return &Engine{validate: v, messages: messages}
}

// RegisterRule adds a custom tag. It panics on a bad tag name since rules are
// registered once at package init.
func (e *Engine) RegisterRule(tag string, fn func(field reflect.Value) bool) {
	err := e.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Struct validates s. It returns nil, a *Error, or the validator's own error
// when s is not a struct.
func (e *Engine) Struct(s any) error {
	err := e.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	out := make([]Violation, 0, len(fieldErrors))

	for _, fe := range fieldErrors {
		field := fe.Field()
		rule := fe.Tag()
		param := fe.Param()

		out = append(out, Violation{
			Field:   field,
			Rule:    rule,
			Param:   param,
			Message: e.message(field, rule, param),
		})
	}

	return &Error{Violations: out}
}

func (e *Engine) message(field, rule, param string) string {
	if msg, ok := e.messages[field+"."+rule]; ok {
		return msg
	}

	return field + " " + Message(rule, param)
}

// Message is the generic text for a rule.
func Message(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "len":
		return "must be exactly " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "gtfield":
		return "must be after " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}

func jsonFieldName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}

	return name
}
