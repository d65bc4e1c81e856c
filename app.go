// app.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"flipbook/internal/checkpoint"
	"flipbook/internal/config"
	"flipbook/internal/database"
	"flipbook/internal/discovery"
	"flipbook/internal/eventhub"
	"flipbook/internal/session"
	"flipbook/internal/websocket"
)

const lastDocumentKey = "last_document"

// Options select the document the app opens
type Options struct {
	DataDir      string
	DocumentID   string
	Name         string
	CheckpointID string
}

// App struct contains the core application state and managers
type App struct {
	config *config.Config

	db         *database.Database
	storage    *checkpoint.Storage
	eventHub   *eventhub.EventHub
	session    *session.Session
	wsServer   *websocket.Server
	watcher    *config.Watcher
	advertiser *discovery.Advertiser
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// Startup opens storage and the document without starting the server
func (a *App) Startup(ctx context.Context, opts Options) error {
	// Load config
	var err error
	if opts.DataDir != "" {
		a.config, err = config.LoadFrom(opts.DataDir)
	} else {
		a.config, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := a.config

	// Initialize database
	a.db, err = database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	a.storage, err = checkpoint.NewStorage(cfg.CheckpointDir, cfg.CompressionLevel)
	if err != nil {
		return fmt.Errorf("open checkpoint storage: %w", err)
	}

	// Initialize EventHub (before the session that publishes to it)
	a.eventHub = eventhub.New()

	a.session, err = a.openSession(opts)
	if err != nil {
		return err
	}
	if err := a.db.SaveSetting(lastDocumentKey, a.session.ID()); err != nil {
		log.Printf("[App] failed to remember document: %v", err)
	}

	log.Printf("[App] opened document %s (%s)", a.session.ID(), a.session.Name())
	return nil
}

// openSession restores the requested document, or the last one, or starts a
// new one
func (a *App) openSession(opts Options) (*session.Session, error) {
	cfg := a.config
	sessionOpts := []session.Option{
		session.WithDatabase(a.db),
		session.WithHub(a.eventHub),
		session.WithAutosave(cfg.AutosaveInterval, cfg.MaxCheckpoints),
	}

	documentID := opts.DocumentID
	if documentID == "" {
		last, err := a.db.GetSetting(lastDocumentKey)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("read last document: %w", err)
		}
		documentID = last
	}

	if documentID != "" {
		sess, err := session.Restore(a.storage, documentID, opts.CheckpointID, sessionOpts...)
		if err == nil {
			return sess, nil
		}
		if opts.CheckpointID != "" || !errors.Is(err, checkpoint.ErrNotFound) {
			return nil, err
		}
	} else {
		documentID = uuid.New().String()
	}

	name := opts.Name
	if name == "" {
		name = documentID
	}
	sessionOpts = append(sessionOpts, session.WithStorage(a.storage))
	return session.New(documentID, name, sessionOpts...), nil
}

// Serve starts the viewer server, config hot reload and mdns
func (a *App) Serve(ctx context.Context) error {
	cfg := a.config

	a.wsServer = websocket.NewServer(cfg.ListenAddr, cfg.AuthKey, a.session)
	a.eventHub.AddBroadcaster(a.wsServer)

	port, err := a.wsServer.Start(ctx)
	if err != nil {
		return fmt.Errorf("start websocket server: %w", err)
	}

	a.watcher, err = config.Watch(cfg, 200*time.Millisecond, func(c *config.Config) {
		a.session.UpdateAutosave(c.AutosaveInterval, c.MaxCheckpoints)
		if c.ListenAddr != cfg.ListenAddr || c.AuthKey != cfg.AuthKey {
			log.Printf("[App] listen_addr and auth_key changes apply after restart")
		}
	})
	if err != nil {
		log.Printf("[App] config hot reload disabled: %v", err)
	}

	if cfg.Advertise {
		a.advertiser, err = discovery.Advertise("", port, "document="+a.session.ID())
		if err != nil {
			log.Printf("[App] mdns advertisement failed: %v", err)
		}
	}

	return nil
}

// Shutdown saves unsaved work and releases everything Startup and Serve opened
func (a *App) Shutdown(ctx context.Context) {
	if a.advertiser != nil {
		a.advertiser.Shutdown()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.wsServer != nil {
		if err := a.wsServer.Stop(ctx); err != nil {
			log.Printf("[App] websocket shutdown: %v", err)
		}
	}

	if a.session != nil && a.session.State().CanUndo() {
		if _, err := a.session.Save("session end"); err != nil {
			log.Printf("[App] final save failed: %v", err)
		}
	}

	if a.storage != nil {
		a.storage.Close()
	}
	// Close database
	if a.db != nil {
		a.db.Close()
	}

	log.Printf("[App] shutdown complete")
}
