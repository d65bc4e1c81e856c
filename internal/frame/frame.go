// internal/frame/frame.go
package frame

import (
	"slices"

	"github.com/google/uuid"
)

// ID identifies a frame across versions of the frame collection.
// It is assigned once and never derived from position.
type ID string

// NewID returns a fresh, globally unique frame ID
func NewID() ID {
	return ID(uuid.NewString())
}

// Point is one sampled pen position
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Color is a CSS-style color value such as "#1e90ff"
type Color string

// Line is one drawn stroke. Lines are never modified after being appended,
// so they may be shared between state values.
type Line struct {
	Position  []Point `json:"position"`
	Color     Color   `json:"color"`
	LineWidth float64 `json:"line_width"`
}

// Equal reports whether two lines describe the same stroke
func (l Line) Equal(other Line) bool {
	return l.Color == other.Color &&
		l.LineWidth == other.LineWidth &&
		slices.Equal(l.Position, other.Position)
}

// Frame holds the ordered lines of one animation frame plus its cached preview
type Frame struct {
	OriginalID ID     `json:"original_id"`
	Lines      []Line `json:"lines"`
	Thumbnail  []byte `json:"thumbnail,omitempty"`
}

// New creates an empty frame with a fresh ID
func New() *Frame {
	return &Frame{
		OriginalID: NewID(),
		Lines:      []Line{},
	}
}

// AppendLine adds a stroke to the end of the frame
func (f *Frame) AppendLine(line Line) {
	f.Lines = append(f.Lines, line)
}

// Clear drops every line. The old slice is left untouched.
func (f *Frame) Clear() {
	f.Lines = []Line{}
}

// UpdateThumbnail replaces the cached preview
func (f *Frame) UpdateThumbnail(thumbnail []byte) {
	f.Thumbnail = thumbnail
}

// Clone returns a new wrapper with its own line slice. Line values and the
// thumbnail blob are reused.
func (f *Frame) Clone() *Frame {
	lines := make([]Line, len(f.Lines))
	copy(lines, f.Lines)
	return &Frame{
		OriginalID: f.OriginalID,
		Lines:      lines,
		Thumbnail:  f.Thumbnail,
	}
}

// LinesEqual reports whether both frames hold the same strokes in order
func (f *Frame) LinesEqual(other *Frame) bool {
	return slices.EqualFunc(f.Lines, other.Lines, Line.Equal)
}

// CloneAll deep-copies a frame collection
func CloneAll(frames []*Frame) []*Frame {
	out := make([]*Frame, len(frames))
	for i, f := range frames {
		out[i] = f.Clone()
	}
	return out
}

// IndexOf returns the position of the frame with the given ID, or -1
func IndexOf(frames []*Frame, id ID) int {
	return slices.IndexFunc(frames, func(f *Frame) bool {
		return f.OriginalID == id
	})
}

// IDs returns the frame IDs in collection order
func IDs(frames []*Frame) []ID {
	ids := make([]ID, len(frames))
	for i, f := range frames {
		ids[i] = f.OriginalID
	}
	return ids
}
