package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/starford/terjecfg/internal/models"
)

// DefaultIndent is used when a document has no indented child line to learn from.
const DefaultIndent = "  "

var (
	attrEscaper = map[byte]*strings.Replacer{
		'"':  strings.NewReplacer(`"`, "&quot;", "<", "&lt;"),
		'\'': strings.NewReplacer("'", "&apos;", "<", "&lt;"),
	}
	textEscaper = strings.NewReplacer("<", "&lt;")
	// Entity or character reference at the start of the input.
	entityRe = regexp.MustCompile(`^&(?:[A-Za-z_][A-Za-z0-9._-]*|#[0-9]+|#x[0-9A-Fa-f]+);`)
)

// escapeAmp turns every '&' that does not start a reference into "&amp;".
// Values that are already escaped stay as they are.
func escapeAmp(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '&' && !entityRe.MatchString(s[i:]) {
			sb.WriteString("&amp;")
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// Segment is one addressable unit of an XML line: literal markup, inline
// text, or a single attribute.
type Segment struct {
	IsAttribute bool             `json:"isAttribute"`
	Content     string           `json:"content"`
	AttrName    string           `json:"attrName,omitempty"`
	AttrValue   string           `json:"attrValue,omitempty"`
	Editable    bool             `json:"editable"`
	Metadata    *models.Metadata `json:"metadata,omitempty"`

	sep   string // text between the attribute name and its opening quote
	quote byte
}

func (s *Segment) write(sb *strings.Builder) {
	if !s.IsAttribute {
		sb.WriteString(s.Content)
		return
	}
	sep, quote := s.sep, s.quote
	if sep == "" {
		sep = "="
	}
	if quote == 0 {
		quote = '"'
	}
	sb.WriteString(s.AttrName)
	sb.WriteString(sep)
	sb.WriteByte(quote)
	sb.WriteString(s.AttrValue)
	sb.WriteByte(quote)
}

// XMLLine is one logical line of an XML document. Tags, comments and other
// markup spanning several physical lines are folded into a single XMLLine.
type XMLLine struct {
	Index    int       `json:"index"`
	Segments []Segment `json:"segments"`
	Depth    int       `json:"depth"`
	TagName  string    `json:"tagName"`

	indent    string
	hasIndent bool
}

// CheckSegmentValue reports whether value can be stored in segment i without
// splitting the logical line.
func (l *XMLLine) CheckSegmentValue(i int, value string) error {
	if i < 0 || i >= len(l.Segments) {
		return fmt.Errorf("%w: no segment %d", ErrInvalidValue, i)
	}
	if strings.ContainsAny(value, "\r\n") {
		return fmt.Errorf("%w: line break in value", ErrInvalidValue)
	}
	return nil
}

// SetSegmentValue replaces the value of an attribute or inline text segment.
// The caller is responsible for checking Editable first.
func (l *XMLLine) SetSegmentValue(i int, value string) {
	seg := &l.Segments[i]
	value = escapeAmp(value)
	if seg.IsAttribute {
		q := seg.quote
		if q == 0 {
			q = '"'
		}
		seg.AttrValue = attrEscaper[q].Replace(value)
		return
	}
	seg.Content = textEscaper.Replace(value)
}

// XMLFile is a parsed XML document.
type XMLFile struct {
	Lines []*XMLLine `json:"lines"`
	// Indent is the indentation unit detected from the document.
	Indent string `json:"indent"`
}

// String reconstructs the document text. Lines keep the indentation they
// were parsed with; lines without one are indented by depth.
func (f *XMLFile) String() string {
	unit := f.Indent
	if unit == "" {
		unit = DefaultIndent
	}
	var sb strings.Builder
	for _, line := range f.Lines {
		if line.hasIndent {
			sb.WriteString(line.indent)
		} else {
			sb.WriteString(strings.Repeat(unit, line.Depth))
		}
		for i := range line.Segments {
			line.Segments[i].write(&sb)
		}
	}
	return sb.String()
}

// Clone returns a deep copy of f.
func (f *XMLFile) Clone() *XMLFile {
	out := &XMLFile{Lines: make([]*XMLLine, len(f.Lines)), Indent: f.Indent}
	for i, line := range f.Lines {
		cp := *line
		cp.Segments = append([]Segment(nil), line.Segments...)
		out.Lines[i] = &cp
	}
	return out
}

// AttachMetadata annotates editable segments. Attributes are looked up as
// "TagName.attrName" and inline text as "TagName".
func (f *XMLFile) AttachMetadata(lookup MetadataLookup) {
	if lookup == nil {
		return
	}
	for _, line := range f.Lines {
		if line.TagName == "" {
			continue
		}
		for i := range line.Segments {
			seg := &line.Segments[i]
			if !seg.Editable {
				continue
			}
			key := line.TagName
			if seg.IsAttribute {
				key += "." + seg.AttrName
			}
			if m, ok := lookup.Lookup(key); ok {
				seg.Metadata = &m
			}
		}
	}
}

// ParseXML splits an XML document into depth-tagged lines. Unbalanced or
// mismatched tags produce a *StructuralError and no file.
func ParseXML(text string) (*XMLFile, error) {
	s := &xmlScanner{src: text, line: 1, file: &XMLFile{Lines: make([]*XMLLine, 0)}}
	if err := s.run(); err != nil {
		return nil, err
	}
	s.file.Indent = detectIndent(s.file.Lines)
	return s.file, nil
}

type openElement struct {
	name string
	line int
}

type xmlScanner struct {
	src   string
	pos   int
	line  int
	stack []openElement
	file  *XMLFile

	cur    *XMLLine
	tagged bool
}

func (s *xmlScanner) run() error {
	for s.pos < len(s.src) {
		if s.cur == nil {
			s.startLine()
			continue
		}
		switch s.src[s.pos] {
		case '\n':
			s.literal("\n")
			s.advance(1)
			s.endLine()
		case '<':
			if err := s.markup(); err != nil {
				return err
			}
		default:
			s.text()
		}
	}
	if s.cur != nil {
		s.endLine()
	}
	if n := len(s.stack); n > 0 {
		top := s.stack[n-1]
		return &StructuralError{Line: top.line, Msg: fmt.Sprintf("element <%s> is never closed", top.name)}
	}
	return nil
}

func (s *xmlScanner) startLine() {
	j := s.pos
	for j < len(s.src) && (s.src[j] == ' ' || s.src[j] == '\t') {
		j++
	}
	s.cur = &XMLLine{
		Index:     len(s.file.Lines),
		Segments:  make([]Segment, 0, 2),
		Depth:     len(s.stack),
		indent:    s.src[s.pos:j],
		hasIndent: true,
	}
	s.tagged = false
	s.pos = j
}

func (s *xmlScanner) endLine() {
	s.file.Lines = append(s.file.Lines, s.cur)
	s.cur = nil
}

func (s *xmlScanner) advance(n int) {
	s.line += strings.Count(s.src[s.pos:s.pos+n], "\n")
	s.pos += n
}

// markTag records the line's first element tag.
func (s *xmlScanner) markTag(name string, depth int) {
	if s.tagged {
		return
	}
	s.cur.TagName = name
	s.cur.Depth = depth
	s.tagged = true
}

func (s *xmlScanner) literal(str string) {
	if str == "" {
		return
	}
	segs := s.cur.Segments
	if n := len(segs); n > 0 && !segs[n-1].IsAttribute && !segs[n-1].Editable {
		segs[n-1].Content += str
		return
	}
	s.cur.Segments = append(segs, Segment{Content: str})
}

func (s *xmlScanner) text() {
	j := s.pos
	for j < len(s.src) && s.src[j] != '<' && s.src[j] != '\n' {
		j++
	}
	chunk := s.src[s.pos:j]
	s.advance(j - s.pos)

	core := strings.TrimSpace(chunk)
	if core == "" {
		s.literal(chunk)
		return
	}
	lead := len(chunk) - len(strings.TrimLeftFunc(chunk, unicode.IsSpace))
	s.literal(chunk[:lead])
	s.cur.Segments = append(s.cur.Segments, Segment{Content: core, Editable: true})
	s.literal(chunk[lead+len(core):])
}

func (s *xmlScanner) markup() error {
	rest := s.src[s.pos:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		return s.until("-->", "comment")
	case strings.HasPrefix(rest, "<![CDATA["):
		return s.until("]]>", "CDATA section")
	case strings.HasPrefix(rest, "<?"):
		return s.until("?>", "processing instruction")
	case strings.HasPrefix(rest, "<!"):
		return s.until(">", "declaration")
	case strings.HasPrefix(rest, "</"):
		return s.closeTag(rest)
	default:
		return s.openTag(rest)
	}
}

func (s *xmlScanner) until(term, what string) error {
	rest := s.src[s.pos:]
	idx := strings.Index(rest, term)
	if idx < 0 {
		return &StructuralError{Line: s.line, Msg: "unterminated " + what}
	}
	n := idx + len(term)
	s.literal(rest[:n])
	s.advance(n)
	return nil
}

func (s *xmlScanner) closeTag(rest string) error {
	end := strings.IndexByte(rest, '>')
	if end < 0 {
		return &StructuralError{Line: s.line, Msg: "unterminated closing tag"}
	}
	name := strings.TrimSpace(rest[2:end])
	if name == "" || !isXMLName(name) {
		return &StructuralError{Line: s.line, Msg: fmt.Sprintf("malformed closing tag %q", rest[:end+1])}
	}
	n := len(s.stack)
	if n == 0 {
		return &StructuralError{Line: s.line, Msg: fmt.Sprintf("closing tag </%s> has no matching opening tag", name)}
	}
	top := s.stack[n-1]
	if top.name != name {
		return &StructuralError{
			Line: s.line,
			Msg:  fmt.Sprintf("closing tag </%s> does not match <%s> opened on line %d", name, top.name, top.line),
		}
	}
	s.stack = s.stack[:n-1]
	s.markTag(name, len(s.stack))
	s.literal(rest[:end+1])
	s.advance(end + 1)
	return nil
}

func (s *xmlScanner) openTag(rest string) error {
	start := s.line
	lineAt := func(off int) int { return start + strings.Count(rest[:off], "\n") }

	i := 1
	for i < len(rest) && isNameChar(rest[i]) {
		i++
	}
	if i == 1 || !isNameStart(rest[1]) {
		return &StructuralError{Line: start, Msg: "unexpected '<'"}
	}
	name := rest[1:i]
	s.markTag(name, len(s.stack))
	s.literal(rest[:i])

	for {
		if i >= len(rest) {
			return &StructuralError{Line: start, Msg: fmt.Sprintf("unterminated tag <%s>", name)}
		}
		c := rest[i]
		switch {
		case isSpace(c):
			j := i
			for j < len(rest) && isSpace(rest[j]) {
				j++
			}
			s.literal(rest[i:j])
			i = j
		case c == '>':
			s.literal(">")
			s.stack = append(s.stack, openElement{name: name, line: start})
			s.advance(i + 1)
			return nil
		case c == '/' && i+1 < len(rest) && rest[i+1] == '>':
			s.literal("/>")
			s.advance(i + 2)
			return nil
		case isNameStart(c):
			ns := i
			for i < len(rest) && isNameChar(rest[i]) {
				i++
			}
			attr := rest[ns:i]
			j := i
			for j < len(rest) && isSpace(rest[j]) {
				j++
			}
			if j >= len(rest) || rest[j] != '=' {
				return &StructuralError{Line: lineAt(i), Msg: fmt.Sprintf("attribute %q of <%s> has no value", attr, name)}
			}
			j++
			for j < len(rest) && isSpace(rest[j]) {
				j++
			}
			if j >= len(rest) || (rest[j] != '"' && rest[j] != '\'') {
				return &StructuralError{Line: lineAt(j), Msg: fmt.Sprintf("attribute %q of <%s> is not quoted", attr, name)}
			}
			q := rest[j]
			k := strings.IndexByte(rest[j+1:], q)
			if k < 0 {
				return &StructuralError{Line: lineAt(j), Msg: fmt.Sprintf("unterminated value of attribute %q", attr)}
			}
			s.cur.Segments = append(s.cur.Segments, Segment{
				IsAttribute: true,
				AttrName:    attr,
				AttrValue:   rest[j+1 : j+1+k],
				Editable:    true,
				sep:         rest[i:j],
				quote:       q,
			})
			i = j + 1 + k + 1
		default:
			return &StructuralError{Line: lineAt(i), Msg: fmt.Sprintf("unexpected %q in <%s>", c, name)}
		}
	}
}

func detectIndent(lines []*XMLLine) string {
	for _, line := range lines {
		if line.Depth == 1 && line.TagName != "" && line.indent != "" {
			return line.indent
		}
	}
	return DefaultIndent
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNameStart(c byte) bool {
	return c == '_' || c == ':' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isXMLName(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}
