package editor

import (
	"fmt"
	"strings"
)

// Status is the result of applying a single edit.
type Status int

const (
	// StatusOK means the edit was applied.
	StatusOK Status = iota
	// StatusLineNotFound means the line index is outside the file.
	StatusLineNotFound
	// StatusNotEditable means the addressed line or segment holds no value.
	StatusNotEditable
	// StatusTypeMismatch means the value does not satisfy the setting's type
	// tag, or cannot be written without breaking its line.
	StatusTypeMismatch
)

const (
	StatusOKStr           = "ok"
	StatusLineNotFoundStr = "line_not_found"
	StatusNotEditableStr  = "not_editable"
	StatusTypeMismatchStr = "type_mismatch"
)

// ParseStatus parses the textual form of a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case StatusOKStr:
		return StatusOK, nil
	case StatusLineNotFoundStr:
		return StatusLineNotFound, nil
	case StatusNotEditableStr:
		return StatusNotEditable, nil
	case StatusTypeMismatchStr:
		return StatusTypeMismatch, nil
	default:
		return StatusOK, fmt.Errorf("editor: invalid status %q", s)
	}
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return StatusOKStr
	case StatusLineNotFound:
		return StatusLineNotFoundStr
	case StatusNotEditable:
		return StatusNotEditableStr
	case StatusTypeMismatch:
		return StatusTypeMismatchStr
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	if s < StatusOK || s > StatusTypeMismatch {
		return nil, fmt.Errorf("editor: cannot marshal invalid status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(data []byte) error {
	parsed, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
