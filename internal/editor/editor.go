// Package editor applies batches of targeted value edits to parsed files.
package editor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/terjecfg/internal/models"
	"github.com/starford/terjecfg/internal/parser"
)

// Edit sets a new value on one line. CFG edits ignore SegmentIndex.
type Edit struct {
	LineIndex    int    `json:"lineIndex"`
	SegmentIndex int    `json:"segmentIndex"`
	Value        string `json:"value"`
}

// Outcome reports what happened to the edit at position Edit of the batch.
type Outcome struct {
	Edit         int    `json:"edit"`
	LineIndex    int    `json:"lineIndex"`
	SegmentIndex int    `json:"segmentIndex"`
	Status       Status `json:"status"`
	Error        string `json:"error,omitempty"`
}

// OK reports whether the edit was applied.
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Succeeded counts applied edits.
func Succeeded(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Apply runs edits in order against a copy of content and returns the copy
// together with one outcome per edit. A failed edit leaves its line as it
// was and does not stop the batch; later edits see earlier applied ones.
// Type checks use the metadata already attached to content.
func Apply(content *parser.Content, edits []Edit) (*parser.Content, []Outcome) {
	out := content.Clone()
	outcomes := make([]Outcome, len(edits))
	for i, e := range edits {
		o := Outcome{Edit: i, LineIndex: e.LineIndex, SegmentIndex: e.SegmentIndex}
		var err error
		switch {
		case out.CFG != nil:
			o.SegmentIndex = 0
			o.Status, err = applyCFG(out.CFG, e)
		case out.XML != nil:
			o.Status, err = applyXML(out.XML, e)
		default:
			o.Status, err = StatusLineNotFound, fmt.Errorf("empty content")
		}
		if err != nil {
			o.Error = err.Error()
		}
		outcomes[i] = o
	}
	return out, outcomes
}

func applyCFG(f *parser.CFGFile, e Edit) (Status, error) {
	if e.LineIndex < 0 || e.LineIndex >= len(f.Lines) {
		return StatusLineNotFound, fmt.Errorf("line %d not found", e.LineIndex)
	}
	line := f.Lines[e.LineIndex]
	if !line.Editable() {
		return StatusNotEditable, fmt.Errorf("line %d is a %s line", e.LineIndex, line.Kind)
	}
	if err := line.CheckValue(e.Value); err != nil {
		return StatusTypeMismatch, fmt.Errorf("%s: %w", line.Key, err)
	}
	if err := checkMetadata(line.Metadata, e.Value); err != nil {
		return StatusTypeMismatch, fmt.Errorf("%s: %w", line.Key, err)
	}
	line.SetValue(e.Value)
	return StatusOK, nil
}

func applyXML(f *parser.XMLFile, e Edit) (Status, error) {
	if e.LineIndex < 0 || e.LineIndex >= len(f.Lines) {
		return StatusLineNotFound, fmt.Errorf("line %d not found", e.LineIndex)
	}
	line := f.Lines[e.LineIndex]
	if e.SegmentIndex < 0 || e.SegmentIndex >= len(line.Segments) {
		return StatusNotEditable, fmt.Errorf("line %d has no segment %d", e.LineIndex, e.SegmentIndex)
	}
	seg := line.Segments[e.SegmentIndex]
	if !seg.Editable {
		return StatusNotEditable, fmt.Errorf("segment %d of line %d is markup", e.SegmentIndex, e.LineIndex)
	}
	if err := line.CheckSegmentValue(e.SegmentIndex, e.Value); err != nil {
		return StatusTypeMismatch, err
	}
	if err := checkMetadata(seg.Metadata, e.Value); err != nil {
		return StatusTypeMismatch, err
	}
	line.SetSegmentValue(e.SegmentIndex, e.Value)
	return StatusOK, nil
}

func checkMetadata(md *models.Metadata, value string) error {
	if md == nil {
		return nil
	}
	return CheckType(md.Type, value)
}

var boolValues = []any{"true", "false", "0", "1", "yes", "no", "on", "off"}

// finiteFloat rejects strings the float pattern lets through but that are
// not numbers, such as "." or "e5".
var finiteFloat = validation.By(func(value any) error {
	s, _ := value.(string)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return validation.NewError("validation_is_float", "must be a floating point number")
	}
	return nil
})

// CheckType validates value against a type tag. String and unrecognised
// tags accept any value.
func CheckType(typeTag, value string) error {
	switch strings.ToLower(strings.TrimSpace(typeTag)) {
	case "int", "integer", "long":
		return validation.Validate(value, validation.Required, is.Int)
	case "float", "double", "number":
		return validation.Validate(value, validation.Required, is.Float, finiteFloat)
	case "bool", "boolean":
		return validation.Validate(strings.ToLower(value), validation.Required, validation.In(boolValues...))
	default:
		return nil
	}
}
