package validator

import (
	"errors"
	"testing"

	"github.com/flexible-healthcare/training-service/internal/models"
)

func TestValidator_Validate(t *testing.T) {
	v := New()
	high := models.PriorityHigh
	bogus := models.ModulePriority("urgent")

	tests := []struct {
		name      string
		input     interface{}
		wantField string
	}{
		{
			name:  "valid sign up",
			input: &models.SignUpRequest{Email: "a@b.com", Password: "secret1", FirstName: "A", LastName: "B"},
		},
		{
			name:      "short password",
			input:     &models.SignUpRequest{Email: "a@b.com", Password: "123", FirstName: "A", LastName: "B"},
			wantField: "password",
		},
		{
			name:      "missing last name",
			input:     &models.SignUpRequest{Email: "a@b.com", Password: "secret1", FirstName: "A"},
			wantField: "last_name",
		},
		{
			name:  "default increment",
			input: &models.AdvanceProgressRequest{},
		},
		{
			name:      "increment above 100",
			input:     &models.AdvanceProgressRequest{Increment: 101},
			wantField: "increment",
		},
		{
			name:  "known priority",
			input: &models.ModuleUpsertRequest{Title: "Fire", Category: "Safety", Priority: &high},
		},
		{
			name:      "unknown priority",
			input:     &models.ModuleUpsertRequest{Title: "Fire", Category: "Safety", Priority: &bogus},
			wantField: "priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error = %v, want ValidationErrors", err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}
