package query

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/geocoder89/promohub/internal/validation"
)

const (
	DefaultPage   = 1
	DefaultLimit  = 10
	MaxLimit      = 100
	DefaultSortBy = "createdAt"
)

type Direction int

const (
	Asc  Direction = 1
	Desc Direction = -1
)

type Op string

const (
	Eq  Op = "eq"
	Lte Op = "lte"
	Gte Op = "gte"
)

// Cond compares one document field with a value.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. The zero value matches everything.
type Filter []Cond

func (f Filter) Eq(field string, value any) Filter {
	return append(f, Cond{Field: field, Op: Eq, Value: value})
}

// EqIfSet adds an equality condition only when value is non-empty, so an
// absent request parameter never turns into "field is empty".
func (f Filter) EqIfSet(field, value string) Filter {
	if strings.TrimSpace(value) == "" {
		return f
	}

	return f.Eq(field, value)
}

func (f Filter) Lte(field string, value any) Filter {
	return append(f, Cond{Field: field, Op: Lte, Value: value})
}

func (f Filter) Gte(field string, value any) Filter {
	return append(f, Cond{Field: field, Op: Gte, Value: value})
}

type Sort struct {
	Field string
	Dir   Direction
}

// Query is what a collection needs to run a find. Limit <= 0 means no limit.
type Query struct {
	Filter Filter
	Sort   Sort
	Skip   int
	Limit  int
}

// Params are the paging and ordering inputs of a list request.
type Params struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// NewParams parses raw query string values. Unparseable or non-positive
// page/limit fall back to defaults and limit is capped at MaxLimit.
func NewParams(page, limit, sortBy, sortOrder string) Params {
	p := Params{
		Page:      parsePositive(page, DefaultPage),
		Limit:     parsePositive(limit, DefaultLimit),
		SortBy:    strings.TrimSpace(sortBy),
		SortOrder: strings.ToLower(strings.TrimSpace(sortOrder)),
	}

	return p.normalized()
}

func (p Params) normalized() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	// Keep the offset within an int32 so no store sees an overflowed skip.
	if last := math.MaxInt32/p.Limit + 1; p.Page > last {
		p.Page = last
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}

	return p
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Direction is ascending only for an explicit "asc".
func (p Params) Direction() Direction {
	if p.SortOrder == "asc" {
		return Asc
	}

	return Desc
}

// Build turns params plus entity filters into a Query. sortBy must be one of
// sortable.
func Build(p Params, sortable []string, filter Filter) (Query, error) {
	p = p.normalized()

	if !slices.Contains(sortable, p.SortBy) {
		return Query{}, validation.New(validation.Violation{
			Field:   "sortBy",
			Rule:    "oneof",
			Param:   strings.Join(sortable, " "),
			Message: "sortBy must be one of " + strings.Join(sortable, ", "),
		})
	}

	return Query{
		Filter: filter,
		Sort:   Sort{Field: p.SortBy, Dir: p.Direction()},
		Skip:   p.Offset(),
		Limit:  p.Limit,
	}, nil
}

func parsePositive(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}

	return n
}
