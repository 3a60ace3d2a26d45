package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule values shared by request DTOs
const (
	// PasswordMinLength is the minimum tenant password length
	PasswordMinLength = 6

	// NameMaxLength bounds free-text name fields
	NameMaxLength = 200
)

var validate = validator.New()

// Struct validates a struct against its `validate` tags and returns one
// human-readable message per failing field. A nil slice means the value is valid.
func Struct(obj interface{}) []string {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, formatFieldError(fe))
	}
	return messages
}

// formatFieldError creates a human-readable validation error message
func formatFieldError(e validator.FieldError) string {
	field := lowerFirst(e.Field())
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return field + " must be one of: " + e.Param()
	case "url":
		return field + " must be a valid URL"
	default:
		return field + " validation failed: " + e.Tag()
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
