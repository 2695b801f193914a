package sqlitestore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jacentio/tether/binding"
	"github.com/jacentio/tether/sqlitestore"
	"github.com/jacentio/tether/store"
)

// --- Test Helpers ---

func openStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(sqlitestore.Config{Path: filepath.Join(t.TempDir(), "records.db")})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustGet(t *testing.T, s *sqlitestore.Store, key string) store.Record {
	t.Helper()
	rec, err := s.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return rec
}

// --- Open Tests ---

func TestOpen_Defaults(t *testing.T) {
	s := openStore(t)

	cfg := s.Config()
	if cfg.Table != "tether_records" {
		t.Errorf("expected table 'tether_records', got %q", cfg.Table)
	}
	if s.PrimaryKey() != "id" {
		t.Errorf("expected primary key 'id', got %q", s.PrimaryKey())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := sqlitestore.DefaultConfig()

	if cfg.Table != "tether_records" {
		t.Errorf("expected Table 'tether_records', got %q", cfg.Table)
	}
	if cfg.PrimaryKey != "id" {
		t.Errorf("expected PrimaryKey 'id', got %q", cfg.PrimaryKey)
	}
	if cfg.Path != "" {
		t.Errorf("expected empty Path, got %q", cfg.Path)
	}

	cfg.Path = filepath.Join(t.TempDir(), "records.db")
	s, err := sqlitestore.Open(cfg)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.Config() != cfg {
		t.Errorf("expected %+v, got %+v", cfg, s.Config())
	}
}

func TestOpen_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config sqlitestore.Config
	}{
		{"missing path", sqlitestore.Config{}},
		{"quoted table", sqlitestore.Config{Path: "x.db", Table: "records; DROP TABLE x"}},
		{"leading digit", sqlitestore.Config{Path: "x.db", Table: "1records"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := sqlitestore.Open(tt.config); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	s, err := sqlitestore.Open(sqlitestore.Config{Path: path})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Put(ctx, store.Record{"id": "A", "color": "red"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	s.Close()

	s, err = sqlitestore.Open(sqlitestore.Config{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if rec := mustGet(t, s, "A"); rec["color"] != "red" {
		t.Errorf("expected color 'red' after reopen, got %v", rec["color"])
	}
}

func TestClose_Nil(t *testing.T) {
	var s *sqlitestore.Store
	if err := s.Close(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

// --- Store Contract Tests ---

func TestSet_MergesAndEmits(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var changes []store.Change
	s.On(store.EventModified, func(c store.Change) { changes = append(changes, c) })

	if err := s.Set(ctx, "A", store.Record{"color": "red", "size": 2}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Set(ctx, "A", store.Record{"color": "blue"}); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	rec := mustGet(t, s, "A")
	if rec["id"] != "A" || rec["color"] != "blue" || rec["size"] != float64(2) {
		t.Errorf("unexpected record %v", rec)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 modified events, got %d", len(changes))
	}
	if len(changes[1].Value) != 1 || changes[1].Value["color"] != "blue" {
		t.Errorf("expected patch-only payload, got %v", changes[1].Value)
	}
}

func TestSet_EmptyKey(t *testing.T) {
	s := openStore(t)
	if err := s.Set(context.Background(), "", store.Record{"a": 1}); !errors.Is(err, store.ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestSet_CannotChangeStoredKey(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	s.Set(ctx, "A", store.Record{"id": "B", "color": "red"})

	if rec := mustGet(t, s, "A"); rec["id"] != "A" {
		t.Errorf("expected stored id 'A', got %v", rec["id"])
	}
	if ok, _ := s.Has(ctx, "B"); ok {
		t.Error("expected no record under 'B'")
	}
}

func TestPut(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	var got store.Change
	s.On(store.EventModified, func(c store.Change) { got = c })

	if err := s.Put(ctx, store.Record{"id": "A", "tags": []any{"x", "y"}}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if got.Key != "A" {
		t.Errorf("expected event key 'A', got %q", got.Key)
	}

	tags, ok := mustGet(t, s, "A")["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "x" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestPut_MissingKey(t *testing.T) {
	s := openStore(t)
	if err := s.Put(context.Background(), store.Record{"color": "red"}); !errors.Is(err, store.ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestPut_UnmarshalableValue(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	emitted := false
	s.On(store.EventModified, func(store.Change) { emitted = true })

	if err := s.Put(ctx, store.Record{"id": "A", "fn": func() {}}); err == nil {
		t.Error("expected marshal error")
	}
	if emitted {
		t.Error("expected no event for failed write")
	}
	if ok, _ := s.Has(ctx, "A"); ok {
		t.Error("expected nothing stored for failed write")
	}
}

func TestHasAndGet_Missing(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "nope")
	if err != nil || ok {
		t.Errorf("expected (false, nil), got (%v, %v)", ok, err)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	s.Put(ctx, store.Record{"id": "A", "color": "red"})

	var removed []store.Change
	s.On(store.EventRemoved, func(c store.Change) { removed = append(removed, c) })

	if err := s.Remove(ctx, "A"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if len(removed) != 1 || removed[0].Value["color"] != "red" {
		t.Errorf("expected removed event with last value, got %v", removed)
	}

	if err := s.Remove(ctx, "A"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second remove, got %v", err)
	}
	if len(removed) != 1 {
		t.Errorf("expected no event for missing record, got %d events", len(removed))
	}
}

func TestLen(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	s.Put(ctx, store.Record{"id": "A"})
	s.Put(ctx, store.Record{"id": "B"})
	s.Put(ctx, store.Record{"id": "A", "x": 1})

	n, err := s.Len(ctx)
	if err != nil {
		t.Fatalf("Len() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 records, got %d", n)
	}
}

func TestCustomTableAndPrimaryKey(t *testing.T) {
	s, err := sqlitestore.Open(sqlitestore.Config{
		Path:       filepath.Join(t.TempDir(), "records.db"),
		Table:      "todos",
		PrimaryKey: "slug",
	})
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, store.Record{"slug": "hello", "title": "Hi"}); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}
	if rec := mustGet(t, s, "hello"); rec["slug"] != "hello" {
		t.Errorf("expected slug 'hello', got %v", rec["slug"])
	}
	if err := s.Put(ctx, store.Record{"id": "x"}); !errors.Is(err, store.ErrMissingKey) {
		t.Errorf("expected ErrMissingKey, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "A", store.Record{"x": 1}); err == nil {
		t.Error("expected error for canceled context")
	}
}

// --- Binding Integration ---

func TestBinding_OverSQLite(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	todo, err := binding.NewType(s, "title", "isDone")
	if err != nil {
		t.Fatalf("NewType() failed: %v", err)
	}

	b, err := todo.New(ctx, store.Record{"id": "A", "title": "Clean room", "isDone": false})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	other, err := binding.New(ctx, s, store.Record{"id": "A"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	var changed []store.Record
	other.On(binding.EventChanged, func(r store.Record) { changed = append(changed, r) })

	if err := b.SetField(ctx, "isDone", true); err != nil {
		t.Fatalf("SetField() failed: %v", err)
	}
	if len(changed) != 1 || changed[0]["isDone"] != true {
		t.Errorf("expected one change with isDone true, got %v", changed)
	}

	done, err := binding.FieldAs[bool](ctx, b, "isDone")
	if err != nil || !done {
		t.Errorf("expected isDone true, got %v (err %v)", done, err)
	}

	if err := s.Remove(ctx, "A"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if !b.Detached() || !other.Detached() {
		t.Error("expected both bindings detached after remove")
	}

	obj, err := other.ToObject(ctx)
	if err != nil {
		t.Fatalf("ToObject() failed: %v", err)
	}
	if len(obj) != 1 || obj["id"] != "A" {
		t.Errorf("expected {id: A}, got %v", obj)
	}
}
