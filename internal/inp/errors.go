package inp

import "fmt"

// StructuralError reports malformed native text. It aborts the scan.
type StructuralError struct {
	// Line is the 1-based line number of the offending line.
	Line int

	// Text is the offending line with surrounding whitespace removed.
	Text string

	// Message describes the problem.
	Message string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Text)
}
