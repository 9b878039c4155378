package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleRequest struct {
	From        string  `json:"fromUserId" validate:"required,max=8"`
	Amount      *string `json:"amount" validate:"required"`
	Description string  `json:"description,omitempty" validate:"max=5"`
}

func TestValidator_Struct(t *testing.T) {
	amount := "10"

	tests := []struct {
		name       string
		req        sampleRequest
		wantErrors map[string]string
	}{
		{name: "valid", req: sampleRequest{From: "C1", Amount: &amount}, wantErrors: map[string]string{}},
		{
			name: "missing fields use json names",
			req:  sampleRequest{},
			wantErrors: map[string]string{
				"fromUserId": "is required",
				"amount":     "is required",
			},
		},
		{
			name:       "too long",
			req:        sampleRequest{From: strings.Repeat("x", 9), Amount: &amount, Description: "toolong"},
			wantErrors: map[string]string{"fromUserId": "must not be more than 8 characters long", "description": "must not be more than 5 characters long"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Struct(tt.req)
			assert.Equal(t, tt.wantErrors, v.Errors)
			assert.Equal(t, len(tt.wantErrors) == 0, v.Valid())
		})
	}
}

func TestValidator_CheckAndError(t *testing.T) {
	v := New()
	v.Check(true, "a", "never")
	v.Check(false, "b", "is bad")
	v.Check(false, "b", "second message ignored")
	v.AddError("a", "is worse")

	assert.False(t, v.Valid())
	assert.Equal(t, "a: is worse; b: is bad", v.Error())
}
