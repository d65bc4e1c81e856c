// internal/canvas/action.go
package canvas

import (
	"encoding/json"
	"errors"
	"fmt"

	"flipbook/internal/frame"
)

var (
	ErrInvalidAction = errors.New("canvas: invalid action")
	ErrUnknownAction = errors.New("canvas: unknown action")
)

// ActionType is the wire name of an action
type ActionType string

const (
	ActionAppendLine         ActionType = "ADD_LINE"
	ActionClearCanvas        ActionType = "CLEAR_CANVAS"
	ActionUndo               ActionType = "UNDO"
	ActionAddFrame           ActionType = "ADD_FRAME"
	ActionChangeCurrentFrame ActionType = "CHANGE_CURRENT_FRAME"
	ActionRemoveFrame        ActionType = "REMOVE_FRAME"
	ActionUpdateThumbnail    ActionType = "UPDATE_THUMBNAIL"
	ActionMoveFrame          ActionType = "MOVE_FRAME"
)

// Action is anything that can be fed to Reduce. Types other than the ones
// declared in this file are ignored by Reduce.
type Action interface {
	Type() ActionType
}

// AppendLine adds a stroke to the current frame
type AppendLine struct {
	Position  []frame.Point `json:"positions"`
	Color     frame.Color   `json:"color"`
	LineWidth float64       `json:"lineWidth"`
}

// ClearCanvas removes every stroke from the current frame
type ClearCanvas struct{}

// Undo reverts the most recent undoable transition
type Undo struct{}

// AddFrame appends an empty frame
type AddFrame struct{}

// ChangeCurrentFrame selects the frame to draw on
type ChangeCurrentFrame struct {
	Index int `json:"index"`
}

// RemoveFrame deletes the frame at Index
type RemoveFrame struct {
	Index int `json:"index"`
}

// UpdateThumbnail replaces the cached preview of the frame at Index
type UpdateThumbnail struct {
	Index     int    `json:"index"`
	Thumbnail []byte `json:"thumbnail"`
}

// MoveFrame moves the frame at Index. Moving forward it ends up at
// InsertIndex, or at the end when InsertIndex is past it. Moving backward it
// ends up just before InsertIndex, or at the front when InsertIndex is 0.
type MoveFrame struct {
	Index       int `json:"index"`
	InsertIndex int `json:"insertIndex"`
}

func (AppendLine) Type() ActionType         { return ActionAppendLine }
func (ClearCanvas) Type() ActionType        { return ActionClearCanvas }
func (Undo) Type() ActionType               { return ActionUndo }
func (AddFrame) Type() ActionType           { return ActionAddFrame }
func (ChangeCurrentFrame) Type() ActionType { return ActionChangeCurrentFrame }
func (RemoveFrame) Type() ActionType        { return ActionRemoveFrame }
func (UpdateThumbnail) Type() ActionType    { return ActionUpdateThumbnail }
func (MoveFrame) Type() ActionType          { return ActionMoveFrame }

// DecodeAction parses a {"type": "...", ...} envelope into an Action value
func DecodeAction(data []byte) (Action, error) {
	var envelope struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}

	switch envelope.Type {
	case ActionAppendLine:
		return decodeAs[AppendLine](data)
	case ActionClearCanvas:
		return ClearCanvas{}, nil
	case ActionUndo:
		return Undo{}, nil
	case ActionAddFrame:
		return AddFrame{}, nil
	case ActionChangeCurrentFrame:
		return decodeAs[ChangeCurrentFrame](data)
	case ActionRemoveFrame:
		return decodeAs[RemoveFrame](data)
	case ActionUpdateThumbnail:
		return decodeAs[UpdateThumbnail](data)
	case ActionMoveFrame:
		return decodeAs[MoveFrame](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Type)
	}
}

func decodeAs[A Action](data []byte) (Action, error) {
	var action A
	if err := json.Unmarshal(data, &action); err != nil {
		return nil, fmt.Errorf("decode %s: %w", action.Type(), err)
	}
	return action, nil
}
