package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name       string
		input      SignupInput
		wantFields []string
	}{
		{
			name:  "valid",
			input: SignupInput{FirstName: "Ash", LastName: "Ketchum", Age: 10},
		},
		{
			name:  "valid with hyphen apostrophe and accents",
			input: SignupInput{FirstName: "Zoë", LastName: "O'Brien-Smith", Age: 18},
		},
		{
			name:       "missing names",
			input:      SignupInput{FirstName: "   ", LastName: "", Age: 10},
			wantFields: []string{"firstName", "lastName"},
		},
		{
			name:       "age too low",
			input:      SignupInput{FirstName: "Ash", LastName: "Ketchum", Age: 0},
			wantFields: []string{"age"},
		},
		{
			name:       "age too high",
			input:      SignupInput{FirstName: "Ash", LastName: "Ketchum", Age: 19},
			wantFields: []string{"age"},
		},
		{
			name:       "path separators rejected",
			input:      SignupInput{FirstName: "Ash/..", LastName: "Ketchum_1", Age: 10},
			wantFields: []string{"firstName", "lastName"},
		},
		{
			name:       "too long",
			input:      SignupInput{FirstName: strings.Repeat("a", 41), LastName: "Ketchum", Age: 10},
			wantFields: []string{"firstName"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			err := ValidateSignup(&in)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs Errors
			require.True(t, errors.As(err, &verrs), "expected validation.Errors, got %v", err)
			for _, f := range tt.wantFields {
				assert.Contains(t, verrs, f)
			}
			assert.Len(t, verrs, len(tt.wantFields))
		})
	}
}

func TestValidateSignupTrims(t *testing.T) {
	in := SignupInput{FirstName: "  Misty ", LastName: " Waterflower", Age: 12}
	require.NoError(t, ValidateSignup(&in))
	assert.Equal(t, "Misty", in.FirstName)
	assert.Equal(t, "Waterflower", in.LastName)
}

func TestErrorMessages(t *testing.T) {
	in := SignupInput{FirstName: "Ash_", Age: 10}
	err := ValidateSignup(&in)
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "invalid input: "))
	assert.Contains(t, msg, "firstName may only contain letters")
	assert.Contains(t, msg, "lastName is a required field")
}

func TestValidateSubmission(t *testing.T) {
	ok := SubmissionInput{QuestNumber: 2, Answer: " antarctica "}
	require.NoError(t, ValidateSubmission(&ok))
	assert.Equal(t, "antarctica", ok.Answer)

	bad := SubmissionInput{QuestNumber: 0, Answer: "  "}
	err := ValidateSubmission(&bad)
	var verrs Errors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs, "questNumber")
	assert.Contains(t, verrs, "answer")
}
