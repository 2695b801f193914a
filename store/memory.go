package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-process Store backed by a map.
type Memory struct {
	*Events

	config  Config
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemory creates an empty Memory store.
func NewMemory(config Config) *Memory {
	config.validate()
	return &Memory{
		Events:  NewEvents(),
		config:  config,
		records: make(map[string]Record),
	}
}

// PrimaryKey returns the name of the primary-key field.
func (m *Memory) PrimaryKey() string {
	return m.config.PrimaryKey
}

// Has reports whether a record exists for key.
func (m *Memory) Has(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.records[key]
	return ok, nil
}

// Get returns a copy of the record for key.
func (m *Memory) Get(ctx context.Context, key string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, ErrNotFound)
	}
	return rec.Clone(), nil
}

// Set merges patch into the record for key.
func (m *Memory) Set(ctx context.Context, key string, patch Record) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.merge(key, patch)
	return m.Emit(EventModified, Change{Key: key, Value: patch.Clone()})
}

// Put merges record into the record named by its primary-key field.
func (m *Memory) Put(ctx context.Context, record Record) error {
	key, err := KeyOf(record, m.config.PrimaryKey)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.merge(key, record)
	return m.Emit(EventModified, Change{Key: key, Value: record.Clone()})
}

// Remove deletes the record for key.
func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	rec, ok := m.records[key]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("remove %q: %w", key, ErrNotFound)
	}
	delete(m.records, key)
	m.mu.Unlock()

	return m.Emit(EventRemoved, Change{Key: key, Value: rec})
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.records))
	for k := range m.records {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// merge applies patch under the write lock. The stored primary-key field
// always equals key.
func (m *Memory) merge(key string, patch Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		rec = make(Record, len(patch)+1)
		m.records[key] = rec
	}
	rec.Merge(patch)
	rec[m.config.PrimaryKey] = key
}
