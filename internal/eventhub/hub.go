// internal/eventhub/hub.go
package eventhub

import (
	"sync"
)

const (
	EventCanvasChanged   = "canvas:changed"
	EventFrameThumbnail  = "frame:thumbnail"
	EventCheckpointSaved = "checkpoint:saved"
	EventSessionRestored = "session:restored"
)

// Broadcaster delivers events to whoever renders the document
type Broadcaster interface {
	BroadcastEvent(eventType string, payload interface{})
}

// EventHub fans events out to the registered broadcasters
type EventHub struct {
	mu           sync.RWMutex
	broadcasters []Broadcaster
}

// New creates an EventHub with no broadcasters
func New() *EventHub {
	return &EventHub{}
}

// AddBroadcaster registers another event sink
func (h *EventHub) AddBroadcaster(b Broadcaster) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcasters = append(h.broadcasters, b)
}

// Emit sends an arbitrary event
func (h *EventHub) Emit(eventName string, payload interface{}) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, b := range h.broadcasters {
		b.BroadcastEvent(eventName, payload)
	}
}

// CanvasChangedEvent summarizes the state after a transition
type CanvasChangedEvent struct {
	SessionID    string   `json:"sessionId"`
	Action       string   `json:"action"`
	CurrentIndex int      `json:"currentIndex"`
	FrameIDs     []string `json:"frameIds"`
	HistoryDepth int      `json:"historyDepth"`
}

func (h *EventHub) EmitCanvasChanged(event CanvasChangedEvent) {
	h.Emit(EventCanvasChanged, event)
}

// FrameThumbnailEvent is sent when a frame preview is refreshed
type FrameThumbnailEvent struct {
	SessionID string `json:"sessionId"`
	FrameID   string `json:"frameId"`
	Index     int    `json:"index"`
	Size      int    `json:"size"`
}

func (h *EventHub) EmitFrameThumbnail(event FrameThumbnailEvent) {
	h.Emit(EventFrameThumbnail, event)
}

// CheckpointSavedEvent reports a persisted checkpoint
type CheckpointSavedEvent struct {
	SessionID    string `json:"sessionId"`
	CheckpointID string `json:"checkpointId"`
	TriggerType  string `json:"triggerType"`
	FrameCount   int    `json:"frameCount"`
}

func (h *EventHub) EmitCheckpointSaved(event CheckpointSavedEvent) {
	h.Emit(EventCheckpointSaved, event)
}

// SessionRestoredEvent is sent after a session is rebuilt from a checkpoint
type SessionRestoredEvent struct {
	SessionID    string `json:"sessionId"`
	CheckpointID string `json:"checkpointId"`
}

func (h *EventHub) EmitSessionRestored(event SessionRestoredEvent) {
	h.Emit(EventSessionRestored, event)
}
