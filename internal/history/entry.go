// internal/history/entry.go
package history

import (
	"slices"

	"flipbook/internal/frame"
)

// Entry describes how to rebuild the state that existed right before one
// transition, given the state that transition produced
type Entry struct {
	CurrentFrameIndex int                 `json:"current_frame_index"`
	Frames            Patch[*frame.Frame] `json:"frames_diff,omitempty"`
	ChangedFrames     []ChangedFrame      `json:"changed_frames,omitempty"`
}

// ChangedFrame carries the lines patch of one frame present in both versions
type ChangedFrame struct {
	OriginalID frame.ID          `json:"original_id"`
	Lines      Patch[frame.Line] `json:"lines_diff"`
}

// Marker returns an entry that only restores the current frame index
func Marker(index int) Entry {
	return Entry{CurrentFrameIndex: index}
}

// Compare builds the entry that takes next back to prior. referenceIndex is
// the current frame index to restore.
func Compare(referenceIndex int, prior, next []*frame.Frame) Entry {
	entry := Entry{
		CurrentFrameIndex: referenceIndex,
		Frames:            CompareFrames(prior, next),
	}

	priorByID := make(map[frame.ID]*frame.Frame, len(prior))
	for _, f := range prior {
		priorByID[f.OriginalID] = f
	}
	for _, f := range next {
		p, ok := priorByID[f.OriginalID]
		if !ok {
			continue
		}
		if lines := CompareLines(p.Lines, f.Lines); !lines.Empty() {
			entry.ChangedFrames = append(entry.ChangedFrames, ChangedFrame{
				OriginalID: f.OriginalID,
				Lines:      lines,
			})
		}
	}
	return entry
}

// CompareFrames diffs two versions of a frame collection by frame ID
func CompareFrames(prior, next []*frame.Frame) Patch[*frame.Frame] {
	return compareKeyed(prior, next, func(f *frame.Frame) frame.ID {
		return f.OriginalID
	})
}

// CompareLines diffs two versions of a line list. Line lists only grow by
// appending or get cleared, so everything after the common prefix is
// replaced.
func CompareLines(prior, next []frame.Line) Patch[frame.Line] {
	p := 0
	for p < len(prior) && p < len(next) && prior[p].Equal(next[p]) {
		p++
	}

	var patch Patch[frame.Line]
	if len(next) > p {
		patch = append(patch, Op[frame.Line]{Kind: OpRemove, Index: p, Count: len(next) - p})
	}
	if len(prior) > p {
		patch = append(patch, Op[frame.Line]{Kind: OpInsert, Index: p, Items: slices.Clone(prior[p:])})
	}
	return patch
}

// Empty reports whether the entry carries no content change
func (e Entry) Empty() bool {
	return e.Frames.Empty() && len(e.ChangedFrames) == 0
}

// Revert rebuilds the prior frame collection from frames. Line patches are
// applied first, locating each frame by ID, then the frame patch. Frames whose
// lines change are replaced by clones, so the input is left untouched.
func (e Entry) Revert(frames []*frame.Frame) []*frame.Frame {
	out := slices.Clone(frames)
	for _, changed := range e.ChangedFrames {
		i := frame.IndexOf(out, changed.OriginalID)
		if i < 0 {
			continue
		}
		f := out[i].Clone()
		f.Lines = Revert(f.Lines, changed.Lines)
		out[i] = f
	}
	return Revert(out, e.Frames)
}
