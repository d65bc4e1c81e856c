// internal/checkpoint/storage.go
package checkpoint

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"flipbook/internal/frame"
)

var ErrNotFound = errors.New("checkpoint not found")

// Storage manages checkpoint persistence. Layout per document:
//
//	<baseDir>/<documentID>/<checkpointID>/metadata.json
//	<baseDir>/<documentID>/<checkpointID>/document.zst
//	<baseDir>/<documentID>/content_pool/<sha256>
type Storage struct {
	baseDir string
	mu      sync.RWMutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewStorage creates a checkpoint storage rooted at baseDir
func NewStorage(baseDir string, compressionLevel int) (*Storage, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Storage{
		baseDir: baseDir,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Close releases the compressor resources
func (s *Storage) Close() error {
	s.decoder.Close()
	return s.encoder.Close()
}

func (s *Storage) documentDir(documentID string) string {
	return filepath.Join(s.baseDir, documentID)
}

func (s *Storage) contentPoolDir(documentID string) string {
	return filepath.Join(s.documentDir(documentID), "content_pool")
}

// Save writes doc as a new checkpoint of documentID
func (s *Storage) Save(documentID string, checkpoint *Checkpoint, doc Document) (*CheckpointResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if checkpoint.ID == "" {
		checkpoint.ID = GenerateID()
	}
	if checkpoint.Timestamp.IsZero() {
		checkpoint.Timestamp = time.Now()
	}
	if checkpoint.TriggerType == "" {
		checkpoint.TriggerType = TriggerManual
	}
	checkpoint.DocumentID = documentID
	checkpoint.FrameCount = len(doc.Frames)

	checkpointDir := filepath.Join(s.documentDir(documentID), checkpoint.ID)
	if err := os.MkdirAll(checkpointDir, 0755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	if err := os.MkdirAll(s.contentPoolDir(documentID), 0755); err != nil {
		return nil, fmt.Errorf("create content pool: %w", err)
	}

	result := &CheckpointResult{Checkpoint: checkpoint}
	record := documentRecord{
		CurrentIndex: doc.CurrentIndex,
		Frames:       make([]frameRecord, len(doc.Frames)),
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, f := range doc.Frames {
		record.Frames[i] = frameRecord{OriginalID: f.OriginalID, Lines: f.Lines}
		if len(f.Thumbnail) == 0 {
			continue
		}
		hash := CalculateHash(f.Thumbnail)
		record.Frames[i].ThumbnailHash = hash

		wg.Add(1)
		go func(hash string, data []byte) {
			defer wg.Done()
			stored, err := s.saveThumbnail(documentID, hash, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("Failed to save thumbnail %s: %v", hash, err))
			} else if stored {
				result.ThumbnailsStored++
			}
		}(hash, f.Thumbnail)
	}

	wg.Wait()

	docJSON, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	if err := os.WriteFile(filepath.Join(checkpointDir, "document.zst"), s.encoder.EncodeAll(docJSON, nil), 0644); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}

	// Metadata goes last so List never sees a checkpoint without content
	metadataJSON, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(checkpointDir, "metadata.json"), metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	return result, nil
}

// saveThumbnail stores a blob in the content pool unless it is already there
func (s *Storage) saveThumbnail(documentID, hash string, data []byte) (bool, error) {
	contentFile := filepath.Join(s.contentPoolDir(documentID), hash)
	if _, err := os.Stat(contentFile); err == nil {
		return false, nil
	}
	if err := os.WriteFile(contentFile, s.encoder.EncodeAll(data, nil), 0644); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads a checkpoint and rebuilds its document, thumbnails included
func (s *Storage) Load(documentID, checkpointID string) (*Checkpoint, Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checkpointDir := filepath.Join(s.documentDir(documentID), checkpointID)

	checkpoint, err := readMetadata(filepath.Join(checkpointDir, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Document{}, fmt.Errorf("%w: %s/%s", ErrNotFound, documentID, checkpointID)
		}
		return nil, Document{}, err
	}

	record, err := s.readDocument(checkpointDir)
	if err != nil {
		return nil, Document{}, err
	}

	doc := Document{
		CurrentIndex: record.CurrentIndex,
		Frames:       make([]*frame.Frame, len(record.Frames)),
	}
	for i, r := range record.Frames {
		lines := r.Lines
		if lines == nil {
			lines = []frame.Line{}
		}
		f := &frame.Frame{OriginalID: r.OriginalID, Lines: lines}
		if r.ThumbnailHash != "" {
			thumbnail, err := s.loadThumbnail(documentID, r.ThumbnailHash)
			if err != nil {
				return nil, Document{}, fmt.Errorf("load thumbnail of frame %s: %w", r.OriginalID, err)
			}
			f.Thumbnail = thumbnail
		}
		doc.Frames[i] = f
	}

	return checkpoint, doc, nil
}

func (s *Storage) readDocument(checkpointDir string) (*documentRecord, error) {
	compressed, err := os.ReadFile(filepath.Join(checkpointDir, "document.zst"))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	docJSON, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress document: %w", err)
	}

	var record documentRecord
	if err := json.Unmarshal(docJSON, &record); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &record, nil
}

func (s *Storage) loadThumbnail(documentID, hash string) ([]byte, error) {
	compressed, err := os.ReadFile(filepath.Join(s.contentPoolDir(documentID), hash))
	if err != nil {
		return nil, err
	}
	return s.decoder.DecodeAll(compressed, nil)
}

func readMetadata(path string) (*Checkpoint, error) {
	metadataJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var checkpoint Checkpoint
	if err := json.Unmarshal(metadataJSON, &checkpoint); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &checkpoint, nil
}

// List returns the checkpoints of a document, oldest first
func (s *Storage) List(documentID string) ([]Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dir := s.documentDir(documentID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var checkpoints []Checkpoint
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "content_pool" {
			continue
		}
		cp, err := readMetadata(filepath.Join(dir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		checkpoints = append(checkpoints, *cp)
	}

	sort.Slice(checkpoints, func(i, j int) bool {
		return checkpoints[i].Timestamp.Before(checkpoints[j].Timestamp)
	})
	return checkpoints, nil
}

// Latest returns the newest checkpoint of a document
func (s *Storage) Latest(documentID string) (*Checkpoint, error) {
	checkpoints, err := s.List(documentID)
	if err != nil {
		return nil, err
	}
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("%w: no checkpoints for %s", ErrNotFound, documentID)
	}
	return &checkpoints[len(checkpoints)-1], nil
}

// Delete removes a checkpoint
func (s *Storage) Delete(documentID, checkpointID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.RemoveAll(filepath.Join(s.documentDir(documentID), checkpointID))
}

// Cleanup removes the oldest checkpoints beyond maxCheckpoints, then drops
// content pool blobs that no remaining checkpoint references
func (s *Storage) Cleanup(documentID string, maxCheckpoints int) (int, error) {
	checkpoints, err := s.List(documentID)
	if err != nil {
		return 0, fmt.Errorf("list checkpoints: %w", err)
	}
	if maxCheckpoints <= 0 || len(checkpoints) <= maxCheckpoints {
		return 0, nil
	}

	deleted := 0
	for _, cp := range checkpoints[:len(checkpoints)-maxCheckpoints] {
		if err := s.Delete(documentID, cp.ID); err != nil {
			// Continue even if delete fails
			continue
		}
		deleted++
	}

	if _, err := s.pruneContentPool(documentID); err != nil {
		return deleted, fmt.Errorf("prune content pool: %w", err)
	}
	return deleted, nil
}

// pruneContentPool removes pool blobs not referenced by any checkpoint of
// the document. Nothing is removed if a checkpoint cannot be read.
func (s *Storage) pruneContentPool(documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.documentDir(documentID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}

	referenced := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "content_pool" {
			continue
		}
		checkpointDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(checkpointDir, "metadata.json")); err != nil {
			continue
		}
		record, err := s.readDocument(checkpointDir)
		if err != nil {
			return 0, fmt.Errorf("checkpoint %s: %w", entry.Name(), err)
		}
		for _, f := range record.Frames {
			if f.ThumbnailHash != "" {
				referenced[f.ThumbnailHash] = true
			}
		}
	}

	blobs, err := os.ReadDir(s.contentPoolDir(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, blob := range blobs {
		if blob.IsDir() || referenced[blob.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(s.contentPoolDir(documentID), blob.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// GenerateID generates a new checkpoint ID
func GenerateID() string {
	return uuid.New().String()
}

// CalculateHash calculates SHA256 hash of content
func CalculateHash(content []byte) string {
	h := sha256.Sum256(content)
	return fmt.Sprintf("%x", h)
}
