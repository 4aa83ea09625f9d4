// Package store keeps the high score between runs and processes.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

type (
	errStore struct{ Corrupt, NegativeValue error }

	// Memory is a process local store, mostly useful in tests.
	Memory struct {
		mu     sync.Mutex
		values map[string]int
	}

	// File keeps every key in one JSON object on disk, e.g.
	// {"snake-high-score": 12}.
	File struct {
		Path string

		mu     sync.Mutex
		values map[string]int
		loaded bool
	}
)

var ErrStore = errStore{
	Corrupt:       errors.New("store file is corrupt"),
	NegativeValue: errors.New("value should not be negative"),
}

func NewMemory() *Memory {
	return &Memory{values: map[string]int{}}
}

func (m *Memory) Get(key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[key], nil
}

func (m *Memory) Set(key string, value int) error {
	if value < 0 {
		return ErrStore.NegativeValue
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func NewFile(path string) *File {
	return &File{Path: path, values: map[string]int{}}
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		f.loaded = true
		return nil
	} else if err != nil {
		return err
	}

	values := map[string]int{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("%w: %w", ErrStore.Corrupt, err)
		}
	}

	f.values = values
	f.loaded = true
	return nil
}

func (f *File) Get(key string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); err != nil {
		return 0, err
	}
	return f.values[key], nil
}

// Set writes the whole object through a temp file and a rename so a crash
// never leaves a half written file behind. A corrupt file is replaced; Get is
// where the corruption gets reported.
func (f *File) Set(key string, value int) error {
	if value < 0 {
		return ErrStore.NegativeValue
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.load(); errors.Is(err, ErrStore.Corrupt) {
		f.values = map[string]int{}
	} else if err != nil {
		return err
	}

	values := make(map[string]int, len(f.values)+1)
	for k, v := range f.values {
		values[k] = v
	}
	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return err
	}

	f.values = values
	f.loaded = true
	return nil
}
