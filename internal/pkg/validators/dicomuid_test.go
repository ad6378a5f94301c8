//go:build unit
// +build unit

package validators

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidDicomUID(t *testing.T) {
	tests := []struct {
		name  string
		uid   string
		valid bool
	}{
		{"typical study UID", "1.2.840.113619.2.55.3.604688119.971.1392132526.795", true},
		{"single component", "1", true},
		{"zero component", "0.0", true},
		{"empty", "", false},
		{"leading dot", ".1.2.3", false},
		{"trailing dot", "1.2.3.", false},
		{"consecutive dots", "1..2", false},
		{"letters", "1.2.abc", false},
		{"whitespace", "1.2 .3", false},
		{"max length", "1." + strings.Repeat("2", 62), true},
		{"too long", "1." + strings.Repeat("2", 63), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidDicomUID(tt.uid))
		})
	}
}

func TestDicomUIDValidation_Tag(t *testing.T) {
	validate := validator.New()
	require.NoError(t, RegisterDicomValidators(validate))

	type subject struct {
		UID string `validate:"dicomuid"`
	}

	assert.NoError(t, validate.Struct(&subject{UID: "1.2.840.10008.5.1.4.1.1.2"}))
	assert.Error(t, validate.Struct(&subject{UID: "not-a-uid"}))
}
