// internal/canvas/reduce.go
package canvas

import (
	"fmt"
	"slices"

	"flipbook/internal/frame"
	"flipbook/internal/history"
)

// Reduce applies one action and returns the resulting state. The input state
// is never modified. Unknown actions return state itself; actions whose
// precondition fails return an equal copy and record no history.
func Reduce(state State, action Action) State {
	if !known(action) {
		return state
	}

	next := state.clone()

	switch a := action.(type) {
	case AppendLine:
		f := next.CurrentFrame()
		if f == nil {
			break
		}
		f.AppendLine(frame.Line{
			Position:  slices.Clone(a.Position),
			Color:     a.Color,
			LineWidth: a.LineWidth,
		})
		next.pushDiff(state)

	case ClearCanvas:
		f := next.CurrentFrame()
		if f == nil {
			break
		}
		f.Clear()
		next.pushDiff(state)

	case AddFrame:
		next.Frames = append(next.Frames, frame.New())
		next.pushDiff(state)

	case ChangeCurrentFrame:
		if !next.validIndex(a.Index) {
			break
		}
		next.CurrentIndex = a.Index
		next.History = append(next.History, history.Marker(state.CurrentIndex))

	case RemoveFrame:
		if len(next.Frames) <= 1 || !next.validIndex(a.Index) {
			break
		}
		next.Frames = slices.Delete(next.Frames, a.Index, a.Index+1)
		next.clampIndex()
		next.pushDiff(state)

	case UpdateThumbnail:
		if !next.validIndex(a.Index) {
			break
		}
		next.Frames[a.Index].UpdateThumbnail(a.Thumbnail)

	case MoveFrame:
		dest, ok := moveDestination(len(next.Frames), a)
		if !ok {
			break
		}
		moved := next.Frames[a.Index]
		next.Frames = slices.Delete(next.Frames, a.Index, a.Index+1)
		next.Frames = slices.Insert(next.Frames, dest, moved)
		next.pushDiff(state)

	case Undo:
		if len(next.History) == 0 {
			break
		}
		entry := next.History[len(next.History)-1]
		next.History = next.History[:len(next.History)-1]
		next.Frames = entry.Revert(next.Frames)
		next.CurrentIndex = entry.CurrentFrameIndex
		next.clampIndex()
	}

	return next
}

// Validate reports why Reduce would leave state unchanged for action, or
// nil when the action takes effect
func Validate(state State, action Action) error {
	if !known(action) {
		return fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}

	switch a := action.(type) {
	case AppendLine, ClearCanvas:
		if state.CurrentFrame() == nil {
			return fmt.Errorf("%w: current frame %d does not exist", ErrInvalidAction, state.CurrentIndex)
		}
	case ChangeCurrentFrame:
		if !state.validIndex(a.Index) {
			return fmt.Errorf("%w: frame index %d out of range [0,%d)", ErrInvalidAction, a.Index, len(state.Frames))
		}
	case RemoveFrame:
		if len(state.Frames) <= 1 {
			return fmt.Errorf("%w: cannot remove the last frame", ErrInvalidAction)
		}
		if !state.validIndex(a.Index) {
			return fmt.Errorf("%w: frame index %d out of range [0,%d)", ErrInvalidAction, a.Index, len(state.Frames))
		}
	case UpdateThumbnail:
		if !state.validIndex(a.Index) {
			return fmt.Errorf("%w: frame index %d out of range [0,%d)", ErrInvalidAction, a.Index, len(state.Frames))
		}
	case MoveFrame:
		if _, ok := moveDestination(len(state.Frames), a); !ok {
			return fmt.Errorf("%w: cannot move frame %d to %d", ErrInvalidAction, a.Index, a.InsertIndex)
		}
	case Undo:
		if len(state.History) == 0 {
			return fmt.Errorf("%w: nothing to undo", ErrInvalidAction)
		}
	}
	return nil
}

// moveDestination resolves the final position of a moved frame. Moving
// forward lands it at InsertIndex, clamped to the last position. Moving
// backward lands it at InsertIndex-1, clamped to the first position.
func moveDestination(n int, a MoveFrame) (int, bool) {
	if a.Index < 0 || a.Index >= n || a.InsertIndex < 0 || a.InsertIndex == a.Index {
		return 0, false
	}
	var dest int
	if a.InsertIndex > a.Index {
		dest = min(a.InsertIndex, n-1)
	} else {
		dest = max(a.InsertIndex-1, 0)
	}
	if dest == a.Index {
		return 0, false
	}
	return dest, true
}

func known(action Action) bool {
	switch action.(type) {
	case AppendLine, ClearCanvas, Undo, AddFrame, ChangeCurrentFrame, RemoveFrame, UpdateThumbnail, MoveFrame:
		return true
	}
	return false
}
