// internal/database/db.go
package database

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Database wraps the SQLite database connection
type Database struct {
	db *sql.DB
}

// Document is one row of the document index
type Document struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	FrameCount       int       `json:"frame_count"`
	LastCheckpointID string    `json:"last_checkpoint_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Open creates or opens a SQLite database at the given path
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.init(); err != nil {
		db.Close()
		return nil, err
	}

	return d, nil
}

// init creates the database schema
func (d *Database) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		frame_count INTEGER NOT NULL DEFAULT 0,
		last_checkpoint_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at);
	`

	_, err := d.db.Exec(schema)
	return err
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// SaveDocument inserts or updates a document, keeping its original creation time
func (d *Database) SaveDocument(doc *Document) error {
	now := time.Now()
	doc.UpdatedAt = now
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}

	_, err := d.db.Exec(`
		INSERT INTO documents (id, name, frame_count, last_checkpoint_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			frame_count = excluded.frame_count,
			last_checkpoint_id = excluded.last_checkpoint_id,
			updated_at = excluded.updated_at`,
		doc.ID, doc.Name, doc.FrameCount, doc.LastCheckpointID, doc.CreatedAt, doc.UpdatedAt)
	return err
}

// GetDocument retrieves a document by ID
func (d *Database) GetDocument(id string) (*Document, error) {
	row := d.db.QueryRow(`
		SELECT id, name, frame_count, last_checkpoint_id, created_at, updated_at
		FROM documents WHERE id = ?`, id)

	doc := &Document{}
	err := row.Scan(&doc.ID, &doc.Name, &doc.FrameCount, &doc.LastCheckpointID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocuments returns all documents, most recently updated first
func (d *Database) ListDocuments() ([]*Document, error) {
	rows, err := d.db.Query(`
		SELECT id, name, frame_count, last_checkpoint_id, created_at, updated_at
		FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc := &Document{}
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.FrameCount, &doc.LastCheckpointID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument deletes a document from the index
func (d *Database) DeleteDocument(id string) error {
	_, err := d.db.Exec("DELETE FROM documents WHERE id = ?", id)
	return err
}

// SaveSetting saves or updates a setting
func (d *Database) SaveSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)`, key, value, time.Now())
	return err
}

// GetSetting retrieves a setting by key
func (d *Database) GetSetting(key string) (string, error) {
	var value string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	return value, err
}
