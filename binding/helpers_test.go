package binding_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jacentio/tether/store"
)

// spyStore wraps a Memory store and records calls, like a stub store with spies.
type spyStore struct {
	*store.Memory

	puts []store.Record
	sets []setCall
	gets []string
}

type setCall struct {
	key   string
	patch store.Record
}

func newSpyStore() *spyStore {
	return &spyStore{Memory: store.NewMemory(store.DefaultConfig())}
}

func (s *spyStore) Get(ctx context.Context, key string) (store.Record, error) {
	s.gets = append(s.gets, key)
	return s.Memory.Get(ctx, key)
}

func (s *spyStore) Set(ctx context.Context, key string, patch store.Record) error {
	s.sets = append(s.sets, setCall{key: key, patch: patch.Clone()})
	return s.Memory.Set(ctx, key, patch)
}

func (s *spyStore) Put(ctx context.Context, record store.Record) error {
	s.puts = append(s.puts, record.Clone())
	return s.Memory.Put(ctx, record)
}

var errBackend = errors.New("backend unavailable")

// brokenStore fails every read and write.
type brokenStore struct {
	*store.Memory
}

func newBrokenStore() *brokenStore {
	return &brokenStore{Memory: store.NewMemory(store.DefaultConfig())}
}

func (s *brokenStore) Has(context.Context, string) (bool, error) { return false, errBackend }
func (s *brokenStore) Get(context.Context, string) (store.Record, error) {
	return nil, errBackend
}
func (s *brokenStore) Set(context.Context, string, store.Record) error { return errBackend }
func (s *brokenStore) Put(context.Context, store.Record) error         { return errBackend }

// changes collects the payloads of "changed" events.
type changes struct {
	got []store.Record
}

func (c *changes) listen(r store.Record) {
	c.got = append(c.got, r)
}

func assertRecord(t *testing.T, got, expected store.Record) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
	for k, v := range expected {
		if got[k] != v {
			t.Errorf("expected %s=%v, got %v", k, v, got[k])
		}
	}
}
