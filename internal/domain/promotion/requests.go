package promotion

import (
	"strings"
	"time"
)

// CreateRequest is the body of a create call. New promotions always start
// pending, so status is not accepted here.
type CreateRequest struct {
	ProductName string     `json:"productName" validate:"required,max=50"`
	Price       *Price     `json:"price" validate:"required"`
	Currency    *Currency  `json:"currency" validate:"required,currency"`
	StartDate   *time.Time `json:"startDate" validate:"required"`
	EndDate     *time.Time `json:"endDate" validate:"required"`
	Comment     string     `json:"comment" validate:"max=255"`
	SubmittedBy string     `json:"submittedBy" validate:"required"`
}

func (r *CreateRequest) Normalize() {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.Comment = strings.TrimSpace(r.Comment)
	r.SubmittedBy = strings.TrimSpace(r.SubmittedBy)
}

// ToPromotion must only be called on a validated request.
func (r CreateRequest) ToPromotion() Promotion {
	return Promotion{
		ProductName: r.ProductName,
		Price:       *r.Price,
		Currency:    *r.Currency,
		StartDate:   r.StartDate.UTC(),
		EndDate:     r.EndDate.UTC(),
		Status:      StatusPending,
		Comment:     r.Comment,
		SubmittedBy: r.SubmittedBy,
	}
}

// UpdateRequest is a partial update: nil fields are left alone, supplied
// fields are checked against the same rules as on create.
type UpdateRequest struct {
	ProductName *string    `json:"productName" validate:"omitnil,min=1,max=50"`
	Price       *Price     `json:"price"`
	Currency    *Currency  `json:"currency" validate:"omitnil,currency"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      *Status    `json:"status" validate:"omitnil,promo_status"`
	Comment     *string    `json:"comment" validate:"omitnil,max=255"`
	SubmittedBy *string    `json:"submittedBy" validate:"omitnil,min=1"`
}

func (r *UpdateRequest) Normalize() {
	trimPtr(r.ProductName)
	trimPtr(r.Comment)
	trimPtr(r.SubmittedBy)
}

// Fields returns the supplied fields keyed by document field name.
func (r UpdateRequest) Fields() map[string]any {
	out := map[string]any{}

	if r.ProductName != nil {
		out["productName"] = *r.ProductName
	}
	if r.Price != nil {
		out["price"] = *r.Price
	}
	if r.Currency != nil {
		out["currency"] = *r.Currency
	}
	if r.StartDate != nil {
		out["startDate"] = r.StartDate.UTC()
	}
	if r.EndDate != nil {
		out["endDate"] = r.EndDate.UTC()
	}
	if r.Status != nil {
		out["status"] = *r.Status
	}
	if r.Comment != nil {
		out["comment"] = *r.Comment
	}
	if r.SubmittedBy != nil {
		out["submittedBy"] = *r.SubmittedBy
	}

	return out
}

// TouchesOneDate reports whether exactly one end of the window is supplied, in
// which case ordering has to be checked against the stored record.
func (r UpdateRequest) TouchesOneDate() bool {
	return (r.StartDate == nil) != (r.EndDate == nil)
}

type StatusUpdateRequest struct {
	Status  Status `json:"status"`
	Comment string `json:"comment" validate:"max=255"`
}

func (r *StatusUpdateRequest) Normalize() {
	r.Status = Status(strings.TrimSpace(string(r.Status)))
	r.Comment = strings.TrimSpace(r.Comment)
}

// Fields always carries status; comment only when one was given.
func (r StatusUpdateRequest) Fields() map[string]any {
	out := map[string]any{"status": r.Status}

	if r.Comment != "" {
		out["comment"] = r.Comment
	}

	return out
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
