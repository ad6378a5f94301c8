package validators

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// DicomUIDValidation validates DICOM unique identifiers (PS3.5 §9): one or
// more numeric components separated by dots, at most 64 characters total.
func DicomUIDValidation(fl validator.FieldLevel) bool {
	return IsValidDicomUID(fl.Field().String())
}

// IsValidDicomUID reports whether uid is a syntactically valid DICOM UID.
func IsValidDicomUID(uid string) bool {
	if uid == "" || len(uid) > 64 {
		return false
	}
	if strings.HasPrefix(uid, ".") || strings.HasSuffix(uid, ".") {
		return false
	}
	if strings.Contains(uid, "..") {
		return false
	}
	for _, r := range uid {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// RegisterDicomValidators installs the custom validators on a validate instance.
func RegisterDicomValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("dicomuid", DicomUIDValidation)
}
