// internal/canvas/action_test.go
package canvas

import (
	"errors"
	"reflect"
	"testing"

	"flipbook/internal/frame"
)

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Action
	}{
		{
			name: "add line",
			data: `{"type":"ADD_LINE","positions":[{"x":1,"y":2},{"x":3,"y":4}],"color":"#ff0000","lineWidth":5}`,
			want: AppendLine{
				Position:  []frame.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
				Color:     "#ff0000",
				LineWidth: 5,
			},
		},
		{"clear", `{"type":"CLEAR_CANVAS"}`, ClearCanvas{}},
		{"undo", `{"type":"UNDO"}`, Undo{}},
		{"add frame", `{"type":"ADD_FRAME"}`, AddFrame{}},
		{"change frame", `{"type":"CHANGE_CURRENT_FRAME","index":2}`, ChangeCurrentFrame{Index: 2}},
		{"remove frame", `{"type":"REMOVE_FRAME","index":1}`, RemoveFrame{Index: 1}},
		{"thumbnail", `{"type":"UPDATE_THUMBNAIL","index":0,"thumbnail":"cG5n"}`, UpdateThumbnail{Index: 0, Thumbnail: []byte("png")}},
		{"move frame", `{"type":"MOVE_FRAME","index":0,"insertIndex":2}`, MoveFrame{Index: 0, InsertIndex: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAction([]byte(tt.data))
			if err != nil {
				t.Fatalf("DecodeAction failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestDecodeAction_Errors(t *testing.T) {
	if _, err := DecodeAction([]byte(`{"type":"SET_PALETTE"}`)); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
	if _, err := DecodeAction([]byte(`{"type":`)); err == nil {
		t.Error("Expected an error for truncated JSON")
	}
	if _, err := DecodeAction([]byte(`{"type":"REMOVE_FRAME","index":"one"}`)); err == nil {
		t.Error("Expected an error for a mistyped field")
	}
}
