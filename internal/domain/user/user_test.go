package user

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/promohub/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateRequest
		field string
		rule  string
	}{
		{name: "missing_name", req: CreateRequest{Email: "a@b.io", Password: "secret1"}, field: "name", rule: "required"},
		{name: "missing_email", req: CreateRequest{Name: "Ana", Password: "secret1"}, field: "email", rule: "required"},
		{name: "bad_email", req: CreateRequest{Name: "Ana", Email: "nope", Password: "secret1"}, field: "email", rule: "email"},
		{name: "short_password", req: CreateRequest{Name: "Ana", Email: "a@b.io", Password: "123"}, field: "password", rule: "min"},
		{name: "missing_password", req: CreateRequest{Name: "Ana", Email: "a@b.io"}, field: "password", rule: "required"},
		{name: "password_over_72_bytes", req: CreateRequest{Name: "Ana", Email: "a@b.io", Password: strings.Repeat("x", 73)}, field: "password", rule: "password_bytes"},
		{name: "multibyte_password_over_72_bytes", req: CreateRequest{Name: "Ana", Email: "a@b.io", Password: strings.Repeat("é", 37)}, field: "password", rule: "password_bytes"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()

			verr, ok := validation.As(err)
			require.True(t, ok)
			assert.True(t, verr.Has(tt.field, tt.rule), "violations: %+v", verr.Violations)
		})
	}
}

func TestCreateRequest_NormalizesEmail(t *testing.T) {
	req := CreateRequest{Name: " Ana ", Email: "  Ana@Example.COM ", Password: "secret1"}

	require.NoError(t, req.Validate())
	assert.Equal(t, "Ana", req.Name)
	assert.Equal(t, "ana@example.com", req.Email)
}

func TestUpdateRequest_FieldsNeverCarryPassword(t *testing.T) {
	name := "Bo"
	pw := "another-secret"
	req := UpdateRequest{Name: &name, Password: &pw}

	require.NoError(t, req.Validate())
	assert.Equal(t, map[string]any{"name": "Bo"}, req.Fields())

	short := "123"
	bad := UpdateRequest{Password: &short}
	verr, ok := validation.As(bad.Validate())
	require.True(t, ok)
	assert.True(t, verr.Has("password", "min"))

	long := strings.Repeat("x", MaxPasswordBytes+1)
	verr, ok = validation.As((&UpdateRequest{Password: &long}).Validate())
	require.True(t, ok)
	assert.True(t, verr.Has("password", "password_bytes"))
}

func TestCreateRequest_PasswordLimitCountsBytes(t *testing.T) {
	atLimit := CreateRequest{Name: "Ana", Email: "a@b.io", Password: strings.Repeat("x", MaxPasswordBytes)}
	require.NoError(t, atLimit.Validate())

	// 36 two-byte runes is exactly 72 bytes.
	accented := CreateRequest{Name: "Ana", Email: "a@b.io", Password: strings.Repeat("é", 36)}
	require.NoError(t, accented.Validate())
}

func TestView_OmitsPassword(t *testing.T) {
	u := User{ID: "u-1", Name: "Ana", Email: "ana@example.com", Password: "$2a$10$hash", CreatedAt: time.Now()}

	raw, err := json.Marshal(u.ToView())
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "$2a$10$hash")
}
