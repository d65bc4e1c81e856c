// internal/canvas/state.go
package canvas

import (
	"slices"

	"flipbook/internal/frame"
	"flipbook/internal/history"
)

// State is one immutable snapshot of the editor: the frames, which one is
// being drawn on, and the undo stack (most recent entry last).
//
// A State returned by Reduce is never modified afterwards, so it can be read
// from several goroutines at once.
type State struct {
	CurrentIndex int             `json:"current_index"`
	Frames       []*frame.Frame  `json:"frames"`
	History      []history.Entry `json:"history"`
}

// NewState returns the initial state: a single empty frame and no history
func NewState() State {
	return State{
		CurrentIndex: 0,
		Frames:       []*frame.Frame{frame.New()},
		History:      []history.Entry{},
	}
}

// CurrentFrame returns the frame being drawn on
func (s State) CurrentFrame() *frame.Frame {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Frames) {
		return nil
	}
	return s.Frames[s.CurrentIndex]
}

// CanUndo reports whether an Undo would change anything
func (s State) CanUndo() bool {
	return len(s.History) > 0
}

// FrameIndex returns the position of the frame with the given ID, or -1
func (s State) FrameIndex(id frame.ID) int {
	return frame.IndexOf(s.Frames, id)
}

// clone copies every nesting level that a transition may write to
func (s State) clone() State {
	return State{
		CurrentIndex: s.CurrentIndex,
		Frames:       frame.CloneAll(s.Frames),
		History:      slices.Clone(s.History),
	}
}

func (s State) validIndex(i int) bool {
	return i >= 0 && i < len(s.Frames)
}

// pushDiff records how to get from s back to prior. Transitions that leave
// the content untouched record nothing.
func (s *State) pushDiff(prior State) {
	entry := history.Compare(prior.CurrentIndex, prior.Frames, s.Frames)
	if entry.Empty() {
		return
	}
	s.History = append(s.History, entry)
}

func (s *State) clampIndex() {
	s.CurrentIndex = max(0, min(len(s.Frames)-1, s.CurrentIndex))
}
