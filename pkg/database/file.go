package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FilePersister stores each state key as <dir>/<key>.json
type FilePersister struct {
	dir string
	mu  sync.Mutex
}

// NewFilePersister creates the directory if needed
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FilePersister{dir: dir}, nil
}

func (p *FilePersister) path(key string) string {
	return filepath.Join(p.dir, key+".json")
}

// LoadState returns the stored value for key; ok is false when the file does
// not exist
func (p *FilePersister) LoadState(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(p.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// SaveState writes the value through a temp file and rename so that a crash
// never leaves a truncated file behind
func (p *FilePersister) SaveState(_ context.Context, key string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tmp, err := os.CreateTemp(p.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p.path(key))
}

// Backend names the persister for status output
func (p *FilePersister) Backend() string {
	return "json"
}
