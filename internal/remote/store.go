package remote

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Store persists a single connection profile.
type Store interface {
	// Load returns the stored profile, or (nil, nil) when none exists.
	Load() (*Profile, error)
	Save(p Profile) error
}

// DefaultStorePath is $XDG_CONFIG_HOME/splatmaster/remote.json.
func DefaultStorePath() string {
	return filepath.Join(xdg.ConfigHome, "splatmaster", "remote.json")
}

// FileStore keeps the profile as indented JSON at Path.
type FileStore struct {
	Path string
}

// Load implements [Store].
func (s *FileStore) Load() (*Profile, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read remote profile: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse remote profile %s: %w", s.Path, err)
	}
	return &p, nil
}

// Save implements [Store], creating parent directories as needed.
func (s *FileStore) Save(p Profile) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.Path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write remote profile: %w", err)
	}
	return nil
}
