package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// ValidateKey checks that a catalog key or database code is a single
// token: letters, digits, '-' and '_'
func ValidateKey(fieldName, value string) error {
	if err := ValidateRequired(fieldName, value); err != nil {
		return err
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return &ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("invalid %s: %q", formatFieldName(fieldName), value),
			}
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for error messages
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"equipmentKey": "equipment key",
		"databaseCode": "database code",
		"dataDir":      "data directory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}
