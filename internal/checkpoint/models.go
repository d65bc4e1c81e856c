// internal/checkpoint/models.go
package checkpoint

import (
	"time"

	"flipbook/internal/frame"
)

const (
	TriggerManual = "manual"
	TriggerAuto   = "auto"
)

// Checkpoint is the metadata of one saved version of a document
type Checkpoint struct {
	ID                 string    `json:"id"`
	DocumentID         string    `json:"document_id"`
	ParentCheckpointID string    `json:"parent_checkpoint_id,omitempty"`
	FrameCount         int       `json:"frame_count"`
	Timestamp          time.Time `json:"timestamp"`
	Description        string    `json:"description,omitempty"`
	TriggerType        string    `json:"trigger_type"`
}

// Document is the content captured by a checkpoint. Undo history is not
// part of it.
type Document struct {
	CurrentIndex int            `json:"current_index"`
	Frames       []*frame.Frame `json:"frames"`
}

// frameRecord is how a frame is written to document.zst; the thumbnail
// lives in the content pool
type frameRecord struct {
	OriginalID    frame.ID     `json:"original_id"`
	Lines         []frame.Line `json:"lines"`
	ThumbnailHash string       `json:"thumbnail_hash,omitempty"`
}

type documentRecord struct {
	CurrentIndex int           `json:"current_index"`
	Frames       []frameRecord `json:"frames"`
}

// CheckpointResult represents the result of a checkpoint operation
type CheckpointResult struct {
	Checkpoint       *Checkpoint `json:"checkpoint"`
	ThumbnailsStored int         `json:"thumbnails_stored"`
	Warnings         []string    `json:"warnings,omitempty"`
}
