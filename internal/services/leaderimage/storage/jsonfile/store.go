// Package jsonfile provides a SharedStore backed by one JSON document on
// disk, with each key a top-level member. It mirrors the browser-style
// local storage object a game shell exposes to mods.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mikasakotomi-maker/yuni-landosol-civ7mod/internal/services/leaderimage/storage"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var _ storage.SharedStore = (*Store)(nil)

// Store reads and patches the document at path. Writes replace the file
// atomically via rename.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a store for path. The file is created on first write.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	return &Store{path: filepath.Clean(path)}, nil
}

// Get returns the raw JSON value of the top-level member key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return nil, err
	}
	result := gjson.GetBytes(data, escapeKey(key))
	if !result.Exists() {
		return nil, storage.ErrNotFound
	}
	return []byte(result.Raw), nil
}

// Set replaces the top-level member key with value, which must be valid JSON.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid json", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.read()
	if err != nil {
		return err
	}
	updated, err := sjson.SetRawBytes(data, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("patch shared document: %w", err)
	}
	return s.write(updated)
}

func (s *Store) read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []byte(`{}`), nil
		}
		return nil, fmt.Errorf("read shared document: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []byte(`{}`), nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("shared document %s is not a json object", s.path)
	}
	return data, nil
}

func (s *Store) write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create shared document dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp document: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace shared document: %w", err)
	}
	return nil
}

// escapeKey makes key a single literal path component for gjson and sjson.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', '!', '=', '<', '>', '%':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
