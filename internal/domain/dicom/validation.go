package dicom

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lassoan/SlicerDICOMwebBrowser/internal/pkg/validators"
)

// newValidate builds a validator instance with the custom DICOM validators installed.
func newValidate() (*validator.Validate, error) {
	validate := validator.New()
	if err := validators.RegisterDicomValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register custom validator: %w", err)
	}
	return validate, nil
}

// flattenValidationError converts validator errors into readable messages.
func flattenValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("Field: %s, Tag: %s", fieldErr.Field(), fieldErr.Tag()))
		}
		return fmt.Errorf("validation failed: %v", messages)
	}
	return fmt.Errorf("validation error: %w", err)
}
