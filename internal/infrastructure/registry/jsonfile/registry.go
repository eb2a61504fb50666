package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Registry persists extra-store routing descriptions as a single JSON
// object mapping store id to description. The file is read wholesale on
// every load and rewritten wholesale on every update; a missing file is an
// empty registry.
type Registry struct {
	path string
	mu   sync.Mutex
}

func New(path string) (*Registry, error) {
	if path == "" {
		path = "./data/store_descriptions.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	return &Registry{path: path}, nil
}

func (r *Registry) Descriptions(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load()
}

func (r *Registry) SetDescription(_ context.Context, id, description string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptions, err := r.load()
	if err != nil {
		return err
	}
	descriptions[id] = description
	return r.store(descriptions)
}

// RemoveDescription drops an id from the registry. Removing an unknown id
// is a no-op.
func (r *Registry) RemoveDescription(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	descriptions, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := descriptions[id]; !ok {
		return nil
	}
	delete(descriptions, id)
	return r.store(descriptions)
}

func (r *Registry) load() (map[string]string, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read store registry: %w", err)
	}

	descriptions := map[string]string{}
	if err := json.Unmarshal(raw, &descriptions); err != nil {
		return nil, fmt.Errorf("parse store registry: %w", err)
	}
	return descriptions, nil
}

func (r *Registry) store(descriptions map[string]string) error {
	raw, err := json.MarshalIndent(descriptions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write store registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace store registry: %w", err)
	}
	return nil
}
