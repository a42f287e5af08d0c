package user

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/geocoder89/promohub/internal/validation"
)

var ErrNotFound = errors.New("user not found")

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// User is the stored record. Password holds the bcrypt hash and must never
// leave the service layer; handlers only ever see a View.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Email     string    `json:"email" bson:"email"`
	Password  string    `json:"password" bson:"password"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type View struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) ToView() View {
	return View{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func ToViews(items []User) []View {
	out := make([]View, 0, len(items))

	for _, u := range items {
		out = append(out, u.ToView())
	}

	return out
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,password_bytes"`
}

func (r *CreateRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
}

func (r *CreateRequest) Validate() error {
	r.Normalize()
	return rules.Struct(r)
}

type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitnil,min=1,max=50"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,min=6,password_bytes"`
}

func (r *UpdateRequest) Normalize() {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	if r.Email != nil {
		*r.Email = normalizeEmail(*r.Email)
	}
}

func (r *UpdateRequest) Validate() error {
	r.Normalize()
	return rules.Struct(r)
}

// Fields returns the supplied fields keyed by document field name. The
// password, if any, is left out: the caller stores its hash instead.
func (r UpdateRequest) Fields() map[string]any {
	out := map[string]any{}

	if r.Name != nil {
		out["name"] = *r.Name
	}
	if r.Email != nil {
		out["email"] = *r.Email
	}

	return out
}

// DuplicateEmail is the violation reported when the unique email index trips.
func DuplicateEmail() *validation.Error {
	return validation.New(validation.Violation{
		Field:   "email",
		Rule:    "unique",
		Message: "Email is already in use",
	})
}

var rules = newRules()

func newRules() *validation.Engine {
	e := validation.NewEngine(map[string]string{
		"name.required":           "Name is required",
		"name.min":                "Name is required",
		"name.max":                "Name cannot be more than 50 characters",
		"email.required":          "Email is required",
		"email.email":             "Please provide a valid email",
		"password.required":       "Password is required",
		"password.min":            "Password must be at least 6 characters",
		"password.password_bytes": "Password cannot be longer than 72 bytes",
	})

	// min counts characters; the bcrypt limit counts bytes.
	e.RegisterRule("password_bytes", func(v reflect.Value) bool {
		return len(v.String()) <= MaxPasswordBytes
	})

	return e
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
