package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rickgao/forzza-swarm/internal/model"
)

// FileStore keeps the latest snapshot as an indented JSON array of games.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// SaveGames replaces the file contents. The write goes to a temporary file
// in the same directory and is renamed into place.
func (s *FileStore) SaveGames(_ context.Context, snap Snapshot) error {
	games := snap.Games
	if games == nil {
		games = []model.FlatGame{}
	}

	data, err := json.MarshalIndent(games, "", "  ")
	if err != nil {
		return fmt.Errorf("encode games: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename to %s: %w", s.path, err)
	}
	return nil
}

// Load reads the saved games. It returns ErrNotFound if the file does not exist.
func (s *FileStore) Load(_ context.Context) ([]model.FlatGame, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	var games []model.FlatGame
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if games == nil {
		games = []model.FlatGame{}
	}
	return games, nil
}
