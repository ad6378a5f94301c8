package utils

import "strconv"

// ConvertToInt converts a string to an int, returning 0 for empty or
// unparseable input so query parameters fall back to repository defaults.
func ConvertToInt(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
