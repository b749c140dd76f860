package parser

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a value cannot be written into its line
// without changing the line structure of the file.
var ErrInvalidValue = errors.New("parser: value does not fit its line")

// StructuralError reports markup that cannot be turned into a well-formed
// line model, such as unbalanced or mismatched XML tags.
type StructuralError struct {
	// Line is the 1-based physical line where the problem was detected.
	Line int
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("parser: line %d: %s", e.Line, e.Msg)
}
