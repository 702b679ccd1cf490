package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ptr/internal/domain"
)

// Save replaces the session marker atomically.
func (s *JSONStorage) Save(session *domain.Session) error {
	path := s.cfg.GetSessionPath()
	if path == "" {
		return nil
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".ptr-session-*.tmp")
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := writeSession(tmp, data, path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

// writeSession fills tmp and renames it over path. tmp is closed on return.
func writeSession(tmp *os.File, data []byte, path string) error {
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

// Load reads the last saved session.
func (s *JSONStorage) Load() (*domain.Session, error) {
	path := s.cfg.GetSessionPath()
	if path == "" {
		return nil, ErrNoSession
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	return &session, nil
}
