// internal/checkpoint/storage_test.go
package checkpoint

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flipbook/internal/frame"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func testDocument() Document {
	a := frame.New()
	a.Lines = append(a.Lines, frame.Line{
		Position:  []frame.Point{{X: 1, Y: 2}, {X: 3, Y: 4}},
		Color:     "#000000",
		LineWidth: 2,
	})
	a.Thumbnail = []byte("thumb-a")
	b := frame.New()
	b.Thumbnail = []byte("thumb-a")
	c := frame.New()
	return Document{CurrentIndex: 1, Frames: []*frame.Frame{a, b, c}}
}

func TestCheckpointStorage_Save(t *testing.T) {
	storage := newTestStorage(t)

	checkpoint := &Checkpoint{
		ID:          "cp-001",
		Description: "Test checkpoint",
	}

	result, err := storage.Save("doc-001", checkpoint, testDocument())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if checkpoint.FrameCount != 3 {
		t.Errorf("Expected frame count 3, got %d", checkpoint.FrameCount)
	}
	if checkpoint.TriggerType != TriggerManual {
		t.Errorf("Expected trigger %s, got %s", TriggerManual, checkpoint.TriggerType)
	}
	if checkpoint.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if result.ThumbnailsStored != 1 {
		t.Errorf("Expected 1 pooled thumbnail, got %d", result.ThumbnailsStored)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Unexpected warnings: %v", result.Warnings)
	}

	for _, name := range []string{"metadata.json", "document.zst"} {
		if _, err := os.Stat(filepath.Join(storage.baseDir, "doc-001", "cp-001", name)); err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
		}
	}
	pooled := filepath.Join(storage.contentPoolDir("doc-001"), CalculateHash([]byte("thumb-a")))
	if _, err := os.Stat(pooled); err != nil {
		t.Errorf("Expected pooled thumbnail: %v", err)
	}
}

func TestCheckpointStorage_Load(t *testing.T) {
	storage := newTestStorage(t)
	doc := testDocument()

	if _, err := storage.Save("doc-002", &Checkpoint{ID: "cp-002"}, doc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, got, err := storage.Load("doc-002", "cp-002")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.ID != "cp-002" || loaded.DocumentID != "doc-002" {
		t.Errorf("Unexpected metadata %+v", loaded)
	}
	if got.CurrentIndex != 1 {
		t.Errorf("Expected current index 1, got %d", got.CurrentIndex)
	}
	if len(got.Frames) != len(doc.Frames) {
		t.Fatalf("Expected %d frames, got %d", len(doc.Frames), len(got.Frames))
	}
	for i := range doc.Frames {
		want, have := doc.Frames[i], got.Frames[i]
		if want.OriginalID != have.OriginalID {
			t.Errorf("Frame %d: expected id %s, got %s", i, want.OriginalID, have.OriginalID)
		}
		if !want.LinesEqual(have) {
			t.Errorf("Frame %d: lines differ", i)
		}
		if !bytes.Equal(want.Thumbnail, have.Thumbnail) {
			t.Errorf("Frame %d: expected thumbnail %q, got %q", i, want.Thumbnail, have.Thumbnail)
		}
		if have.Lines == nil {
			t.Errorf("Frame %d: lines should never be nil", i)
		}
	}
}

func TestCheckpointStorage_LoadMissing(t *testing.T) {
	storage := newTestStorage(t)

	_, _, err := storage.Load("doc-x", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := storage.Latest("doc-x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound from Latest, got %v", err)
	}
}

func TestCheckpointStorage_List(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Now()
	ids := []string{"cp-c", "cp-a", "cp-b"}
	for i, id := range ids {
		cp := &Checkpoint{ID: id, Timestamp: base.Add(time.Duration(i) * time.Second)}
		if _, err := storage.Save("doc-list", cp, testDocument()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	checkpoints, err := storage.List("doc-list")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(checkpoints) != 3 {
		t.Fatalf("Expected 3 checkpoints, got %d", len(checkpoints))
	}
	for i, id := range ids {
		if checkpoints[i].ID != id {
			t.Errorf("Position %d: expected %s, got %s", i, id, checkpoints[i].ID)
		}
	}

	latest, err := storage.Latest("doc-list")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != "cp-b" {
		t.Errorf("Expected latest cp-b, got %s", latest.ID)
	}

	empty, err := storage.List("doc-none")
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected empty list for unknown document, got %v, %v", empty, err)
	}
}

func TestCheckpointStorage_DeleteAndCleanup(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Now()
	for i := 0; i < 5; i++ {
		cp := &Checkpoint{ID: GenerateID(), Timestamp: base.Add(time.Duration(i) * time.Second)}
		if _, err := storage.Save("doc-clean", cp, testDocument()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	deleted, err := storage.Cleanup("doc-clean", 2)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	remaining, _ := storage.List("doc-clean")
	if len(remaining) != 2 {
		t.Fatalf("Expected 2 remaining, got %d", len(remaining))
	}

	if err := storage.Delete("doc-clean", remaining[0].ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	remaining, _ = storage.List("doc-clean")
	if len(remaining) != 1 {
		t.Errorf("Expected 1 remaining after delete, got %d", len(remaining))
	}

	if n, err := storage.Cleanup("doc-clean", 0); err != nil || n != 0 {
		t.Errorf("Cleanup with no limit should do nothing, got %d, %v", n, err)
	}
}

func TestCalculateHash(t *testing.T) {
	h1 := CalculateHash([]byte("abc"))
	h2 := CalculateHash([]byte("abc"))
	h3 := CalculateHash([]byte("abd"))

	if h1 != h2 {
		t.Error("Same content should hash identically")
	}
	if h1 == h3 {
		t.Error("Different content should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(h1))
	}
}

func TestCheckpointStorage_CleanupPrunesContentPool(t *testing.T) {
	storage := newTestStorage(t)

	withThumbs := func(thumbs ...string) Document {
		doc := Document{}
		for _, th := range thumbs {
			f := frame.New()
			f.Thumbnail = []byte(th)
			doc.Frames = append(doc.Frames, f)
		}
		return doc
	}

	base := time.Now()
	docs := []Document{
		withThumbs("old-only", "shared"),
		withThumbs("shared", "middle"),
		withThumbs("shared", "newest"),
	}
	for i, doc := range docs {
		cp := &Checkpoint{ID: GenerateID(), Timestamp: base.Add(time.Duration(i) * time.Second)}
		if _, err := storage.Save("doc-pool", cp, doc); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	pooled := func(th string) bool {
		_, err := os.Stat(filepath.Join(storage.contentPoolDir("doc-pool"), CalculateHash([]byte(th))))
		return err == nil
	}
	for _, th := range []string{"old-only", "shared", "middle", "newest"} {
		if !pooled(th) {
			t.Fatalf("Expected %s in the pool before cleanup", th)
		}
	}

	deleted, err := storage.Cleanup("doc-pool", 1)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	tests := []struct {
		thumb string
		kept  bool
	}{
		{"old-only", false},
		{"middle", false},
		{"shared", true},
		{"newest", true},
	}
	for _, tt := range tests {
		if got := pooled(tt.thumb); got != tt.kept {
			t.Errorf("Thumbnail %s: expected kept=%v, got %v", tt.thumb, tt.kept, got)
		}
	}

	remaining, _ := storage.List("doc-pool")
	if len(remaining) != 1 {
		t.Fatalf("Expected 1 checkpoint, got %d", len(remaining))
	}
	if _, doc, err := storage.Load("doc-pool", remaining[0].ID); err != nil {
		t.Errorf("Remaining checkpoint should still load: %v", err)
	} else if string(doc.Frames[1].Thumbnail) != "newest" {
		t.Errorf("Expected thumbnail 'newest', got %q", doc.Frames[1].Thumbnail)
	}
}
