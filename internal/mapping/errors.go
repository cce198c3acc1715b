package mapping

import (
	"errors"
	"fmt"
)

// ParseError reports the first structural problem in an artifact.
type ParseError struct {
	// Field is the JSON path of the offending field, e.g. "inputs[2].index".
	// Empty when the document as a whole is unreadable.
	Field string

	Message string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return "mapping: " + e.Message
	}
	return fmt.Sprintf("mapping: %s: %s", e.Field, e.Message)
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func parseErrorf(field, format string, args ...any) *ParseError {
	return &ParseError{Field: field, Message: fmt.Sprintf(format, args...)}
}
