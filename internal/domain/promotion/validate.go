package promotion

import (
	"reflect"
	"time"

	"github.com/geocoder89/promohub/internal/validation"
)

var rules = newRules()

func newRules() *validation.Engine {
	e := validation.NewEngine(map[string]string{
		"productName.required": "Product name is required",
		"productName.min":      "Product name is required",
		"productName.max":      "Product name cannot be more than 50 characters",
		"price.required":       "Price is required",
		"currency.required":    "Currency is required",
		"currency.currency":    "Invalid currency code",
		"startDate.required":   "Start date is required",
		"endDate.required":     "End date is required",
		"status.promo_status":  "Status must be pending, rejected, approved, or completed",
		"comment.max":          "Comment cannot be more than 255 characters",
		"submittedBy.required": "Submitted by user is required",
		"submittedBy.min":      "Submitted by user is required",
	})

	e.RegisterRule("currency", func(v reflect.Value) bool {
		return Currency(v.Int()).IsValid()
	})

	e.RegisterRule("promo_status", func(v reflect.Value) bool {
		return Status(v.String()).IsValid()
	})

	return e
}

// Validate normalizes r and checks every field rule plus the date window.
func (r *CreateRequest) Validate() error {
	r.Normalize()

	err := rules.Struct(r)
	err = validation.Append(err, priceRules(r.Price)...)

	if r.StartDate != nil && r.EndDate != nil {
		err = validation.Append(err, dateOrder(*r.StartDate, *r.EndDate)...)
	}

	return err
}

// Validate checks only the supplied fields. When both dates are supplied
// their order is checked here; a single date needs CheckDateOrder against
// the stored record.
func (r *UpdateRequest) Validate() error {
	r.Normalize()

	err := rules.Struct(r)
	err = validation.Append(err, priceRules(r.Price)...)

	if r.StartDate != nil && r.EndDate != nil {
		err = validation.Append(err, dateOrder(*r.StartDate, *r.EndDate)...)
	}

	return err
}

func (r *StatusUpdateRequest) Validate() error {
	r.Normalize()

	err := rules.Struct(r)

	if !r.Status.IsValid() {
		err = validation.Append(err, validation.Violation{
			Field:   "status",
			Rule:    "promo_status",
			Message: "Invalid status provided",
		})
	}

	return err
}

// CheckDateOrder returns a validation error unless end is strictly after start.
func CheckDateOrder(start, end time.Time) error {
	return validation.Append(nil, dateOrder(start, end)...)
}

func dateOrder(start, end time.Time) []validation.Violation {
	if end.After(start) {
		return nil
	}

	return []validation.Violation{{
		Field:   "endDate",
		Rule:    "gtfield",
		Param:   "startDate",
		Message: "End date must be after start date",
	}}
}

// priceRules checks the exact decimal: it must not be negative and must fit
// in a Decimal128.
func priceRules(p *Price) []validation.Violation {
	if p == nil {
		return nil
	}

	if p.IsNegative() {
		return []validation.Violation{{
			Field:   "price",
			Rule:    "min",
			Param:   "0",
			Message: "Price cannot be negative",
		}}
	}

	if _, ok := p.Decimal128(); !ok {
		return []validation.Violation{{
			Field:   "price",
			Rule:    "decimal128",
			Message: "Price is out of range",
		}}
	}

	return nil
}
