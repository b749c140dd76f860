package parser

import (
	"fmt"
	"strings"
)

// LineKind classifies a physical line of a .cfg file.
type LineKind int

const (
	// KindUnknown is a line that is neither a setting, a comment nor blank.
	// It is printed verbatim and never editable.
	KindUnknown LineKind = iota
	// KindConfig is a "Key = Value" setting line.
	KindConfig
	// KindComment is a line whose first non-blank characters are a comment marker.
	KindComment
	// KindEmpty is a line without any non-whitespace content.
	KindEmpty
)

const (
	KindUnknownStr = "unknown"
	KindConfigStr  = "config"
	KindCommentStr = "comment"
	KindEmptyStr   = "empty"
)

// ParseLineKind parses the textual form of a LineKind. Matching is
// case-insensitive.
func ParseLineKind(s string) (LineKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case KindUnknownStr:
		return KindUnknown, nil
	case KindConfigStr:
		return KindConfig, nil
	case KindCommentStr:
		return KindComment, nil
	case KindEmptyStr:
		return KindEmpty, nil
	default:
		return KindUnknown, fmt.Errorf("parser: invalid line kind %q", s)
	}
}

// String returns the textual form of k.
func (k LineKind) String() string {
	switch k {
	case KindConfig:
		return KindConfigStr
	case KindComment:
		return KindCommentStr
	case KindEmpty:
		return KindEmptyStr
	default:
		return KindUnknownStr
	}
}

// Valid reports whether k is one of the declared constants.
func (k LineKind) Valid() bool {
	return k >= KindUnknown && k <= KindEmpty
}

// MarshalText implements encoding.TextMarshaler. JSON and YAML encoders use it.
func (k LineKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("parser: cannot marshal invalid line kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LineKind) UnmarshalText(data []byte) error {
	parsed, err := ParseLineKind(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
