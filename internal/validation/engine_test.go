package validation

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required,max=5"`
	Count *int   `json:"count" validate:"omitnil,even"`
}

func newSampleEngine() *Engine {
	e := NewEngine(map[string]string{
		"title.required": "Title is required",
	})
	e.RegisterRule("even", func(v reflect.Value) bool {
		return v.Int()%2 == 0
	})

	return e
}

func TestEngine_UsesJSONNamesAndOverrides(t *testing.T) {
	e := newSampleEngine()
	three := 3

	err := e.Struct(sample{Count: &three})
	require.Error(t, err)

	verr, ok := As(err)
	require.True(t, ok)

	assert.True(t, verr.Has("title", "required"))
	assert.True(t, verr.Has("count", "even"))

	for _, v := range verr.Violations {
		if v.Field == "title" {
			assert.Equal(t, "Title is required", v.Message)
		}
		if v.Field == "count" {
			assert.Equal(t, "count failed even validation", v.Message)
		}
	}
}

func TestEngine_ValidStructReturnsNil(t *testing.T) {
	e := newSampleEngine()
	four := 4

	assert.NoError(t, e.Struct(sample{Title: "ok", Count: &four}))
	assert.NoError(t, e.Struct(sample{Title: "ok"}), "nil pointer is skipped by omitnil")
}

func TestError_MessageJoinsViolations(t *testing.T) {
	err := New(
		Violation{Field: "a", Rule: "required", Message: "A is required"},
		Violation{Field: "b", Rule: "max", Message: "B is too long"},
	)

	assert.Equal(t, "A is required; B is too long", err.Error())
	assert.True(t, err.Has("b", ""))
	assert.False(t, err.Has("c", ""))
}

func TestAppend(t *testing.T) {
	extra := Violation{Field: "endDate", Rule: "after", Message: "End date must be after start date"}

	assert.NoError(t, Append(nil))

	err := Append(nil, extra)
	verr, ok := As(err)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 1)

	err = Append(New(Violation{Field: "a", Rule: "required", Message: "A is required"}), extra)
	verr, ok = As(err)
	require.True(t, ok)
	assert.Len(t, verr.Violations, 2)
	assert.True(t, verr.Has("endDate", "after"))
}
