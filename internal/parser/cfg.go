package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/starford/terjecfg/internal/models"
)

var (
	cfgKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*$`)
	// Trailing comment of the form: // [type: int; default: 300] Description
	inlineMetaRe = regexp.MustCompile(`\[\s*type:\s*([^;\]]+);\s*default:\s*([^\]]*)\]\s*(.*)`)
)

var commentMarkers = []string{"//", "#", ";"}

// CFGLine is a single physical line of a .cfg file.
type CFGLine struct {
	Index    int              `json:"index"`
	Kind     LineKind         `json:"kind"`
	Key      string           `json:"key"`
	Value    string           `json:"value"`
	Metadata *models.Metadata `json:"metadata,omitempty"`

	raw string
	// Config lines print as prefix + Value + suffix.
	prefix string
	suffix string
	inline *models.Metadata
}

// Editable reports whether the line's value may be changed.
func (l *CFGLine) Editable() bool {
	return l.Kind == KindConfig
}

// SetValue replaces the value of a config line. The key, separator and any
// trailing terminator or comment are kept as they were.
func (l *CFGLine) SetValue(v string) {
	l.Value = v
}

// CheckValue reports whether v would be read back unchanged after SetValue.
// Line breaks are rejected, and so is anything that ends the setting early,
// such as an unquoted ';' or an unbalanced '"'.
func (l *CFGLine) CheckValue(v string) error {
	if strings.ContainsAny(v, "\r\n") {
		return fmt.Errorf("%w: line break in value", ErrInvalidValue)
	}
	back := parseCFGLine(l.prefix+v+l.suffix, l.Index)
	if back.Kind != KindConfig || back.Key != l.Key || back.Value != v {
		return fmt.Errorf("%w: %q would be read back as %q", ErrInvalidValue, v, back.Value)
	}
	return nil
}

func (l *CFGLine) write(sb *strings.Builder) {
	if l.Kind == KindConfig {
		sb.WriteString(l.prefix)
		sb.WriteString(l.Value)
		sb.WriteString(l.suffix)
		return
	}
	sb.WriteString(l.raw)
}

// CFGFile is a parsed .cfg file.
type CFGFile struct {
	Lines []*CFGLine `json:"lines"`
}

// ParseCFG splits .cfg text into typed lines. It never fails: anything that
// is not a comment, a blank line or a "Key = Value" setting is kept as an
// Unknown line.
func ParseCFG(text string) *CFGFile {
	raws := splitLines(text)
	file := &CFGFile{Lines: make([]*CFGLine, 0, len(raws))}
	for i, raw := range raws {
		file.Lines = append(file.Lines, parseCFGLine(raw, i))
	}
	return file
}

// String reconstructs the file text.
func (f *CFGFile) String() string {
	var sb strings.Builder
	for _, line := range f.Lines {
		line.write(&sb)
	}
	return sb.String()
}

// Clone returns a deep copy of f.
func (f *CFGFile) Clone() *CFGFile {
	out := &CFGFile{Lines: make([]*CFGLine, len(f.Lines))}
	for i, line := range f.Lines {
		cp := *line
		out.Lines[i] = &cp
	}
	return out
}

// AttachMetadata joins every config line with the catalog entry for its key.
// Fields the catalog leaves empty are filled from inline trailing-comment
// metadata. Lines without either keep a nil Metadata.
func (f *CFGFile) AttachMetadata(lookup MetadataLookup) {
	for _, line := range f.Lines {
		if line.Kind != KindConfig {
			continue
		}
		var meta *models.Metadata
		if lookup != nil {
			if m, ok := lookup.Lookup(line.Key); ok {
				meta = &m
			}
		}
		if line.inline != nil {
			if meta == nil {
				m := *line.inline
				meta = &m
			} else {
				m := meta.Merge(*line.inline)
				meta = &m
			}
		}
		line.Metadata = meta
	}
}

// Find returns the first config line with the given key.
func (f *CFGFile) Find(key string) (*CFGLine, bool) {
	for _, line := range f.Lines {
		if line.Kind == KindConfig && line.Key == key {
			return line, true
		}
	}
	return nil, false
}

func parseCFGLine(raw string, index int) *CFGLine {
	line := &CFGLine{Index: index, Kind: KindUnknown, raw: raw}
	body, eol := cutEOL(raw)
	trimmed := strings.TrimSpace(body)

	if trimmed == "" {
		line.Kind = KindEmpty
		return line
	}
	if isCFGComment(trimmed) {
		line.Kind = KindComment
		return line
	}

	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return line
	}
	key := strings.TrimSpace(body[:eq])
	if !cfgKeyRe.MatchString(key) {
		return line
	}

	rest := body[eq+1:]
	end := valueEnd(rest)
	rawVal := rest[:end]
	value := strings.TrimSpace(rawVal)
	lead := len(rawVal) - len(strings.TrimLeftFunc(rawVal, unicode.IsSpace))

	line.Kind = KindConfig
	line.Key = key
	line.Value = value
	line.prefix = body[:eq+1] + rawVal[:lead]
	line.suffix = rawVal[lead+len(value):] + rest[end:] + eol

	if m := inlineMetaRe.FindStringSubmatch(rest[end:]); m != nil {
		line.inline = &models.Metadata{
			Type:        strings.TrimSpace(m[1]),
			Default:     strings.TrimSpace(m[2]),
			Description: strings.TrimSpace(m[3]),
		}
	}
	return line
}

func isCFGComment(trimmed string) bool {
	for _, marker := range commentMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

// valueEnd returns the offset of the first ';' outside double quotes, or
// len(s) when the value runs to the end of the line.
func valueEnd(s string) int {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				return i
			}
		}
	}
	return len(s)
}

// splitLines splits text into physical lines that keep their terminators.
// A trailing empty fragment after the final newline is not a line.
func splitLines(text string) []string {
	lines := strings.SplitAfter(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

func cutEOL(raw string) (body, eol string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	default:
		return raw, ""
	}
}
