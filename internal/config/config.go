// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"

	DefaultCompressionLevel = 3
	DefaultMaxCheckpoints   = 50
	DefaultAutosaveInterval = 25
	DefaultListenAddr       = "127.0.0.1:0"
)

// Config holds resolved paths plus the tunables read from config.yaml
type Config struct {
	DataDir       string `yaml:"-"`
	ConfigPath    string `yaml:"-"`
	DatabasePath  string `yaml:"-"`
	CheckpointDir string `yaml:"-"`
	LogDir        string `yaml:"-"`

	CompressionLevel int    `yaml:"compression_level"`
	MaxCheckpoints   int    `yaml:"max_checkpoints"`
	AutosaveInterval int    `yaml:"autosave_interval"` // history-changing actions between autosaves, 0 disables
	ListenAddr       string `yaml:"listen_addr"`
	Advertise        bool   `yaml:"advertise"`
	AuthKey          string `yaml:"auth_key"`
}

// Load resolves ~/.flipbook and reads its config file if there is one
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(home, ".flipbook"))
}

// LoadFrom builds a Config rooted at dataDir, creating the directories it needs
func LoadFrom(dataDir string) (*Config, error) {
	cfg := &Config{
		DataDir:       dataDir,
		ConfigPath:    filepath.Join(dataDir, FileName),
		DatabasePath:  filepath.Join(dataDir, "flipbook.db"),
		CheckpointDir: filepath.Join(dataDir, "checkpoints"),
		LogDir:        filepath.Join(dataDir, "logs"),
	}
	cfg.setDefaults()

	// Ensure directories exist
	for _, dir := range []string{cfg.DataDir, cfg.CheckpointDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := cfg.readFile(); err != nil {
		return nil, err
	}

	if key := os.Getenv("FLIPBOOK_AUTH_KEY"); key != "" {
		cfg.AuthKey = key
	}

	return cfg, nil
}

// Reload returns a fresh copy of cfg with config.yaml read again
func (c *Config) Reload() (*Config, error) {
	return LoadFrom(c.DataDir)
}

func (c *Config) setDefaults() {
	c.CompressionLevel = DefaultCompressionLevel
	c.MaxCheckpoints = DefaultMaxCheckpoints
	c.AutosaveInterval = DefaultAutosaveInterval
	c.ListenAddr = DefaultListenAddr
}

// readFile overlays the YAML file; a missing file keeps the defaults
func (c *Config) readFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", c.ConfigPath, err)
	}

	if c.CompressionLevel <= 0 {
		c.CompressionLevel = DefaultCompressionLevel
	}
	if c.MaxCheckpoints <= 0 {
		c.MaxCheckpoints = DefaultMaxCheckpoints
	}
	if c.AutosaveInterval < 0 {
		c.AutosaveInterval = 0
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	return nil
}

// Save writes the tunables back to config.yaml
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(c.ConfigPath, data, 0644)
}

// DocumentCheckpointDir returns where checkpoints of one document live
func (c *Config) DocumentCheckpointDir(documentID string) string {
	return filepath.Join(c.CheckpointDir, documentID)
}
