package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"glowcheck/internal/store"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "glowcheck.json")
	st, err := store.NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() error = %v", err)
	}
	if err := st.Save("glow-store", []byte(`{"isPremium":true}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be renamed away, stat err=%v", err)
	}

	reopened, err := store.NewJSONStore(path)
	if err != nil {
		t.Fatalf("NewJSONStore() reopen error = %v", err)
	}
	got, ok, err := reopened.Load("glow-store")
	if err != nil || !ok {
		t.Fatalf("Load() err=%v ok=%v", err, ok)
	}
	if string(got) != `{"isPremium":true}` {
		t.Fatalf("unexpected value: %s", got)
	}
}

func TestNewByEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	st, err := store.NewByEngine("JSON", filepath.Join(dir, "a.json"))
	if err != nil {
		t.Fatalf("NewByEngine(json) error = %v", err)
	}
	if _, ok := st.(*store.JSONStore); !ok {
		t.Fatalf("expected *JSONStore, got %T", st)
	}
	if _, err := store.NewByEngine("redis", filepath.Join(dir, "b")); err == nil {
		t.Fatalf("expected unsupported engine error")
	}
}
