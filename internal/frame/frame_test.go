// internal/frame/frame_test.go
package frame

import (
	"testing"
)

func testLine(x float64) Line {
	return Line{
		Position:  []Point{{X: x, Y: 0}, {X: x + 1, Y: 1}},
		Color:     "#000000",
		LineWidth: 2,
	}
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if id == "" {
			t.Fatal("NewID returned empty ID")
		}
		if seen[id] {
			t.Fatalf("duplicate ID %s", id)
		}
		seen[id] = true
	}
}

func TestFrameClone(t *testing.T) {
	f := New()
	f.AppendLine(testLine(1))
	f.UpdateThumbnail([]byte("png"))

	clone := f.Clone()
	if clone == f {
		t.Fatal("Clone returned the same pointer")
	}
	if clone.OriginalID != f.OriginalID {
		t.Errorf("Expected ID %s, got %s", f.OriginalID, clone.OriginalID)
	}
	if !clone.LinesEqual(f) {
		t.Error("Clone lines differ from original")
	}

	clone.AppendLine(testLine(2))
	if len(f.Lines) != 1 {
		t.Errorf("Appending to clone changed original: %d lines", len(f.Lines))
	}

	clone.Clear()
	if len(f.Lines) != 1 {
		t.Errorf("Clearing clone changed original: %d lines", len(f.Lines))
	}

	clone.UpdateThumbnail([]byte("other"))
	if string(f.Thumbnail) != "png" {
		t.Errorf("Thumbnail update leaked into original: %q", f.Thumbnail)
	}
}

func TestLineEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Line
		want bool
	}{
		{"same", testLine(1), testLine(1), true},
		{"different points", testLine(1), testLine(2), false},
		{"different color", testLine(1), Line{Position: testLine(1).Position, Color: "#ffffff", LineWidth: 2}, false},
		{"different width", testLine(1), Line{Position: testLine(1).Position, Color: "#000000", LineWidth: 3}, false},
		{"empty", Line{}, Line{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCloneAllAndLookup(t *testing.T) {
	frames := []*Frame{New(), New(), New()}
	clones := CloneAll(frames)

	for i := range frames {
		if clones[i] == frames[i] {
			t.Errorf("frame %d shares its wrapper", i)
		}
	}

	id := frames[2].OriginalID
	if got := IndexOf(clones, id); got != 2 {
		t.Errorf("Expected index 2, got %d", got)
	}
	if IndexOf(clones, "missing") != -1 {
		t.Error("Expected -1 for unknown ID")
	}

	ids := IDs(clones)
	for i, f := range frames {
		if ids[i] != f.OriginalID {
			t.Errorf("IDs()[%d] = %s, want %s", i, ids[i], f.OriginalID)
		}
	}
}
