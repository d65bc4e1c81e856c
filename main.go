// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flipbook/internal/discovery"
	"flipbook/internal/export"
)

func main() {
	var opts Options
	var exportPath string
	var browseFor time.Duration
	flag.StringVar(&opts.DataDir, "data", "", "data directory (default ~/.flipbook)")
	flag.StringVar(&opts.DocumentID, "doc", "", "document to open (default: last opened)")
	flag.StringVar(&opts.Name, "name", "", "name of a new document")
	flag.StringVar(&opts.CheckpointID, "checkpoint", "", "checkpoint to restore (default: latest)")
	flag.StringVar(&exportPath, "export", "", "write the document to this PDF file and exit")
	flag.DurationVar(&browseFor, "browse", 0, "list flipbook servers on the local network for this long and exit")
	flag.Parse()

	if browseFor > 0 {
		if err := discovery.Browse(browseFor, func(addr string) { fmt.Println(addr) }); err != nil {
			log.Printf("[Discovery] browse failed: %v", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := NewApp()
	if err := app.Startup(ctx, opts); err != nil {
		log.Printf("[App] startup failed: %v", err)
		app.Shutdown(ctx)
		os.Exit(1)
	}

	if exportPath != "" {
		err := exportPDF(app, exportPath)
		app.Shutdown(ctx)
		if err != nil {
			log.Printf("[App] export failed: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := app.Serve(ctx); err != nil {
		log.Printf("[App] %v", err)
		app.Shutdown(ctx)
		os.Exit(1)
	}

	fmt.Printf("WS_PORT:%d\n", app.wsServer.GetPort())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[App] shutting down...")
	shutdownCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	app.Shutdown(shutdownCtx)
}

func exportPDF(app *App, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	snap := app.session.Snapshot()
	if err := export.PDF(f, snap.Frames, export.Options{Title: snap.Name, FrameNumbers: true}); err != nil {
		f.Close()
		return err
	}
	log.Printf("[App] exported %d frames to %s", len(snap.Frames), path)
	return f.Close()
}
