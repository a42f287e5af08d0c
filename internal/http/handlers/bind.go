package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/geocoder89/promohub/internal/validation"
	"github.com/gin-gonic/gin"
)

const invalidBody = "Invalid request body"

// BindJSON decodes the body into out. On failure it writes a 400 envelope
// with failMsg and returns false. Field rules are checked later by the
// service, not here.
func (r Responder) BindJSON(ctx *gin.Context, out any, failMsg string) bool {
	err := ctx.ShouldBindJSON(out)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		ctx.JSON(http.StatusRequestEntityTooLarge, Envelope{
			Success: false,
			Message: failMsg,
			Error:   fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
		})
		return false
	}

	r.BadRequest(ctx, failMsg, invalidBody, bindErrorDetails(err, out))

	return false
}

func bindErrorDetails(err error, out any) any {
	if errors.Is(err, io.EOF) {
		return []validation.Violation{{Field: "body", Rule: "required", Message: "request body is empty"}}
	}

	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return []validation.Violation{{
			Field:   "body",
			Rule:    "json",
			Message: fmt.Sprintf("invalid JSON at offset %d", syntaxError.Offset),
		}}
	}

	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		field := jsonPath(baseStructType(out), typeError.Field)
		if field == "" {
			field = strings.TrimSpace(typeError.Field)
		}

		return []validation.Violation{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("%s must be of type %s", field, typeName(typeError.Type)),
		}}
	}

	return []validation.Violation{{Field: "body", Rule: "json", Message: err.Error()}}
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// jsonPath maps a Go dot path ("Price.Decimal") to JSON names where it can.
func jsonPath(root reflect.Type, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	current := root
	out := make([]string, 0, 2)

	for _, part := range strings.Split(dotPath, ".") {
		name := part

		for current != nil && current.Kind() == reflect.Pointer {
			current = current.Elem()
		}

		var next reflect.Type
		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := current.FieldByName(part); ok {
				name = jsonName(sf)
				next = sf.Type
			}
		}

		out = append(out, name)
		current = next
	}

	return strings.Join(out, ".")
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	default:
		return t.String()
	}
}
