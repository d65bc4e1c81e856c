// internal/session/session.go
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"flipbook/internal/canvas"
	"flipbook/internal/checkpoint"
	"flipbook/internal/database"
	"flipbook/internal/eventhub"
	"flipbook/internal/frame"
	"flipbook/internal/history"
)

var ErrNoStorage = errors.New("session has no checkpoint storage")

// Session owns one live document: its current canvas state and the
// infrastructure that persists and publishes it
type Session struct {
	id   string
	name string

	mu        sync.RWMutex
	state     canvas.State
	sinceSave int

	// saveMu serializes checkpoint writes so parent links stay linear
	saveMu           sync.Mutex
	lastCheckpointID string

	storage *checkpoint.Storage
	db      *database.Database
	hub     *eventhub.EventHub

	autosaveInterval int
	maxCheckpoints   int
}

// Option configures a Session
type Option func(*Session)

// WithStorage enables checkpoints
func WithStorage(storage *checkpoint.Storage) Option {
	return func(s *Session) { s.storage = storage }
}

// WithDatabase records saved checkpoints in the document index
func WithDatabase(db *database.Database) Option {
	return func(s *Session) { s.db = db }
}

// WithHub publishes state changes to hub
func WithHub(hub *eventhub.EventHub) Option {
	return func(s *Session) { s.hub = hub }
}

// WithAutosave writes an automatic checkpoint every interval history-changing
// dispatches and keeps at most maxCheckpoints of them. An interval of 0
// disables autosave.
func WithAutosave(interval, maxCheckpoints int) Option {
	return func(s *Session) {
		s.autosaveInterval = interval
		s.maxCheckpoints = maxCheckpoints
	}
}

// WithState starts the session from an existing state instead of NewState
func WithState(state canvas.State) Option {
	return func(s *Session) { s.state = state }
}

// New creates a session for a document
func New(id, name string, opts ...Option) *Session {
	s := &Session{
		id:    id,
		name:  name,
		state: canvas.NewState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the document ID
func (s *Session) ID() string {
	return s.id
}

// Name returns the document name
func (s *Session) Name() string {
	return s.name
}

// State returns the current state. The returned value must not be modified.
func (s *Session) State() canvas.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Summary is the compact view of a state sent after each dispatch
type Summary struct {
	SessionID    string     `json:"sessionId"`
	CurrentIndex int        `json:"currentIndex"`
	FrameIDs     []frame.ID `json:"frameIds"`
	HistoryDepth int        `json:"historyDepth"`
	CanUndo      bool       `json:"canUndo"`
}

// Snapshot is the full document as seen by a viewer
type Snapshot struct {
	SessionID    string         `json:"sessionId"`
	Name         string         `json:"name"`
	CurrentIndex int            `json:"currentIndex"`
	Frames       []*frame.Frame `json:"frames"`
	HistoryDepth int            `json:"historyDepth"`
}

// Summarize describes state without its frame contents
func (s *Session) Summarize(state canvas.State) Summary {
	return Summary{
		SessionID:    s.id,
		CurrentIndex: state.CurrentIndex,
		FrameIDs:     frame.IDs(state.Frames),
		HistoryDepth: len(state.History),
		CanUndo:      state.CanUndo(),
	}
}

// Snapshot returns the current document
func (s *Session) Snapshot() Snapshot {
	state := s.State()
	return Snapshot{
		SessionID:    s.id,
		Name:         s.name,
		CurrentIndex: state.CurrentIndex,
		Frames:       state.Frames,
		HistoryDepth: len(state.History),
	}
}

// UpdateAutosave changes the autosave policy of a running session
func (s *Session) UpdateAutosave(interval, maxCheckpoints int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosaveInterval = interval
	s.maxCheckpoints = maxCheckpoints
	if interval > 0 && s.sinceSave >= interval {
		s.sinceSave = interval - 1
	}
}

// Dispatch applies an action. Actions that would not take effect are
// rejected with the validation error and leave the state untouched.
func (s *Session) Dispatch(action canvas.Action) (canvas.State, error) {
	s.mu.Lock()
	prev := s.state
	if err := canvas.Validate(prev, action); err != nil {
		s.mu.Unlock()
		log.Printf("[Session] %s: ignored %v: %v", s.id, actionName(action), err)
		return prev, err
	}

	next := canvas.Reduce(prev, action)
	s.state = next

	autosave := false
	if len(next.History) != len(prev.History) {
		s.sinceSave++
		if s.autosaveInterval > 0 && s.sinceSave >= s.autosaveInterval && s.storage != nil {
			s.sinceSave = 0
			autosave = true
		}
	}
	s.mu.Unlock()

	s.publish(action, next)

	if autosave {
		if _, err := s.save(next, checkpoint.TriggerAuto, ""); err != nil {
			log.Printf("[Session] %s: autosave failed: %v", s.id, err)
		}
	}

	return next, nil
}

func (s *Session) publish(action canvas.Action, state canvas.State) {
	if s.hub == nil {
		return
	}

	if a, ok := action.(canvas.UpdateThumbnail); ok {
		f := state.Frames[a.Index]
		s.hub.EmitFrameThumbnail(eventhub.FrameThumbnailEvent{
			SessionID: s.id,
			FrameID:   string(f.OriginalID),
			Index:     a.Index,
			Size:      len(f.Thumbnail),
		})
		return
	}

	s.hub.EmitCanvasChanged(eventhub.CanvasChangedEvent{
		SessionID:    s.id,
		Action:       string(action.Type()),
		CurrentIndex: state.CurrentIndex,
		FrameIDs:     frameIDs(state.Frames),
		HistoryDepth: len(state.History),
	})
}

// Save writes a manual checkpoint of the current document
func (s *Session) Save(description string) (*checkpoint.Checkpoint, error) {
	s.mu.Lock()
	state := s.state
	s.sinceSave = 0
	s.mu.Unlock()

	return s.save(state, checkpoint.TriggerManual, description)
}

func (s *Session) save(state canvas.State, trigger, description string) (*checkpoint.Checkpoint, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	cp := &checkpoint.Checkpoint{
		ParentCheckpointID: s.lastCheckpointID,
		Description:        description,
		TriggerType:        trigger,
	}
	result, err := s.storage.Save(s.id, cp, checkpoint.Document{
		CurrentIndex: state.CurrentIndex,
		Frames:       state.Frames,
	})
	if err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	for _, w := range result.Warnings {
		log.Printf("[Session] %s: %s", s.id, w)
	}
	s.lastCheckpointID = cp.ID

	s.mu.RLock()
	maxCheckpoints := s.maxCheckpoints
	s.mu.RUnlock()
	if maxCheckpoints > 0 {
		if deleted, err := s.storage.Cleanup(s.id, maxCheckpoints); err != nil {
			log.Printf("[Session] %s: checkpoint cleanup failed: %v", s.id, err)
		} else if deleted > 0 {
			log.Printf("[Session] %s: removed %d old checkpoints", s.id, deleted)
		}
	}

	if s.db != nil {
		doc := &database.Document{
			ID:               s.id,
			Name:             s.name,
			FrameCount:       cp.FrameCount,
			LastCheckpointID: cp.ID,
		}
		if existing, err := s.db.GetDocument(s.id); err == nil {
			doc.CreatedAt = existing.CreatedAt
		}
		if err := s.db.SaveDocument(doc); err != nil {
			log.Printf("[Session] %s: failed to index document: %v", s.id, err)
		}
	}

	log.Printf("[Session] %s: saved %s checkpoint %s (%d frames, %d thumbnails stored)",
		s.id, trigger, cp.ID, cp.FrameCount, result.ThumbnailsStored)

	if s.hub != nil {
		s.hub.EmitCheckpointSaved(eventhub.CheckpointSavedEvent{
			SessionID:    s.id,
			CheckpointID: cp.ID,
			TriggerType:  trigger,
			FrameCount:   cp.FrameCount,
		})
	}

	return cp, nil
}

// Checkpoints lists the saved checkpoints of this document, oldest first
func (s *Session) Checkpoints() ([]checkpoint.Checkpoint, error) {
	if s.storage == nil {
		return nil, ErrNoStorage
	}
	return s.storage.List(s.id)
}

// Restore rebuilds a session from a checkpoint. An empty checkpointID picks
// the latest one. The restored session starts with an empty undo history.
func Restore(storage *checkpoint.Storage, documentID, checkpointID string, opts ...Option) (*Session, error) {
	if storage == nil {
		return nil, ErrNoStorage
	}

	if checkpointID == "" {
		latest, err := storage.Latest(documentID)
		if err != nil {
			return nil, err
		}
		checkpointID = latest.ID
	}

	cp, doc, err := storage.Load(documentID, checkpointID)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", documentID, err)
	}
	if len(doc.Frames) == 0 {
		return nil, fmt.Errorf("restore %s: checkpoint %s has no frames", documentID, checkpointID)
	}

	state := canvas.State{
		CurrentIndex: max(0, min(len(doc.Frames)-1, doc.CurrentIndex)),
		Frames:       doc.Frames,
		History:      []history.Entry{},
	}

	s := New(documentID, documentID, append([]Option{WithStorage(storage)}, opts...)...)
	s.state = state
	s.lastCheckpointID = cp.ID

	if s.db != nil {
		if indexed, err := s.db.GetDocument(documentID); err == nil {
			s.name = indexed.Name
		}
	}

	log.Printf("[Session] %s: restored checkpoint %s (%d frames)", documentID, cp.ID, len(doc.Frames))

	if s.hub != nil {
		s.hub.EmitSessionRestored(eventhub.SessionRestoredEvent{
			SessionID:    documentID,
			CheckpointID: cp.ID,
		})
	}

	return s, nil
}

func actionName(action canvas.Action) string {
	if action == nil {
		return "<nil>"
	}
	return string(action.Type())
}

func frameIDs(frames []*frame.Frame) []string {
	ids := make([]string, len(frames))
	for i, f := range frames {
		ids[i] = string(f.OriginalID)
	}
	return ids
}
