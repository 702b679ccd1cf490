package storage

import (
	"errors"

	"ptr/internal/config"
	"ptr/internal/domain"
)

// ErrNoSession is returned by Load when no session was ever saved.
var ErrNoSession = errors.New("no previous session")

// Storage persists the session marker of the run command.
type Storage interface {
	Save(session *domain.Session) error
	// Load returns ErrNoSession when nothing was saved yet.
	Load() (*domain.Session, error)
}

// JSONStorage stores the session in a JSON file beside the record directory.
type JSONStorage struct {
	cfg *config.Config
}

// NewJSONStorage returns a Storage that reads/writes the config's session path.
func NewJSONStorage(cfg *config.Config) *JSONStorage {
	return &JSONStorage{cfg: cfg}
}
