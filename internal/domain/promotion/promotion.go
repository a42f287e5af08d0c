package promotion

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("promotion not found")

// Promotion is a time-bounded pricing campaign. SubmittedBy holds the id of
// the submitting user only; user fields are never copied in.
type Promotion struct {
	ID          string    `json:"id" bson:"_id"`
	ProductName string    `json:"productName" bson:"productName"`
	Price       Price     `json:"price" bson:"price"`
	Currency    Currency  `json:"currency" bson:"currency"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
	Status      Status    `json:"status" bson:"status"`
	Comment     string    `json:"comment,omitempty" bson:"comment,omitempty"`
	SubmittedBy string    `json:"submittedBy" bson:"submittedBy"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsActive is true for approved promotions whose window contains now, both
// ends inclusive.
func (p Promotion) IsActive(now time.Time) bool {
	return p.Status == StatusApproved &&
		!now.Before(p.StartDate) &&
		!now.After(p.EndDate)
}

// UserRef is the read-side shape of a user reference.
type UserRef struct {
	ID string `json:"id"`
}

// View is what the API returns for a promotion.
type View struct {
	Promotion
	SubmittedBy UserRef `json:"submittedBy"`
	IsActive    bool    `json:"isActive"`
}

func (p Promotion) ToView(now time.Time) View {
	return View{
		Promotion:   p,
		SubmittedBy: UserRef{ID: p.SubmittedBy},
		IsActive:    p.IsActive(now),
	}
}

func ToViews(items []Promotion, now time.Time) []View {
	out := make([]View, 0, len(items))

	for _, p := range items {
		out = append(out, p.ToView(now))
	}

	return out
}

type ListFilter struct {
	Status      string
	SubmittedBy string
}
