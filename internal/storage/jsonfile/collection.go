// Package jsonfile persists a collection of records as a single JSON array
// document. Every mutation loads the whole document, applies the change and
// writes it back while holding the collection lock, so concurrent requests
// never lose each other's updates.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	logx "github.com/greenleaf-shop/server/pkg/logger"
)

// Collection is a file-backed list of T. A Collection with an empty path keeps
// the encoded document in memory only. Either way callers only ever see
// decoded copies.
type Collection[T any] struct {
	mu   sync.Mutex
	path string
	mem  []byte
}

// New returns a collection persisted at path.
func New[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

// NewMemory returns a collection that never touches the filesystem.
func NewMemory[T any]() *Collection[T] {
	return &Collection[T]{}
}

// Path returns the backing file, or "" for memory collections.
func (c *Collection[T]) Path() string {
	return c.path
}

// All returns a copy of every record.
func (c *Collection[T]) All() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load()
}

// Find returns the first record matching pred.
func (c *Collection[T]) Find(pred func(T) bool) (T, bool, error) {
	var zero T

	items, err := c.All()
	if err != nil {
		return zero, false, err
	}
	for _, it := range items {
		if pred(it) {
			return it, true, nil
		}
	}
	return zero, false, nil
}

// Filter returns every record matching pred, in stored order.
func (c *Collection[T]) Filter(pred func(T) bool) ([]T, error) {
	items, err := c.All()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Update runs one read-modify-write cycle. fn receives a copy of the current
// records and returns the records to persist. When fn fails nothing is written.
func (c *Collection[T]) Update(fn func(items []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return c.store(next)
}

// load must be called with c.mu held.
func (c *Collection[T]) load() ([]T, error) {
	data := c.mem
	if c.path != "" {
		var err error
		data, err = os.ReadFile(c.path)
		if err != nil {
			if os.IsNotExist(err) {
				return []T{}, nil
			}
			return nil, fmt.Errorf("read %s: %w", c.path, err)
		}
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.name(), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// store must be called with c.mu held.
func (c *Collection[T]) store(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.name(), err)
	}
	if c.path == "" {
		c.mem = data
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		// Usually means the directory already exists; the write below reports
		// anything real.
		logx.Debug().Err(err).Str("path", c.path).Msg("data directory creation failed")
	}

	temp := c.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", temp, err)
	}
	if err := os.Rename(temp, c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.path, err)
	}
	return nil
}

func (c *Collection[T]) name() string {
	if c.path == "" {
		return "memory collection"
	}
	return c.path
}
