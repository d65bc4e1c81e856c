// app_test.go
package main

import (
	"context"
	"path/filepath"
	"testing"

	"flipbook/internal/canvas"
	"flipbook/internal/frame"
)

func TestApp_ReopensLastDocument(t *testing.T) {
	ctx := context.Background()
	dataDir := filepath.Join(t.TempDir(), "data")

	app := NewApp()
	if err := app.Startup(ctx, Options{DataDir: dataDir, Name: "Sketch"}); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	documentID := app.session.ID()

	app.session.Dispatch(canvas.AppendLine{Position: []frame.Point{{X: 1, Y: 1}}, Color: "#000000", LineWidth: 1})
	app.session.Dispatch(canvas.AddFrame{})
	app.Shutdown(ctx)

	reopened := NewApp()
	if err := reopened.Startup(ctx, Options{DataDir: dataDir}); err != nil {
		t.Fatalf("Second startup failed: %v", err)
	}
	defer reopened.Shutdown(ctx)

	if reopened.session.ID() != documentID {
		t.Errorf("Expected document %s, got %s", documentID, reopened.session.ID())
	}
	if reopened.session.Name() != "Sketch" {
		t.Errorf("Expected name Sketch, got %s", reopened.session.Name())
	}
	state := reopened.session.State()
	if len(state.Frames) != 2 || len(state.Frames[0].Lines) != 1 {
		t.Errorf("Unexpected restored state: %d frames", len(state.Frames))
	}
}

func TestApp_ExportPDF(t *testing.T) {
	ctx := context.Background()
	app := NewApp()
	if err := app.Startup(ctx, Options{DataDir: t.TempDir(), DocumentID: "doc-export"}); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	defer app.Shutdown(ctx)

	if err := exportPDF(app, filepath.Join(t.TempDir(), "out.pdf")); err != nil {
		t.Errorf("exportPDF failed: %v", err)
	}
}
