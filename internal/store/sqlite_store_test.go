package store_test

import (
	"path/filepath"
	"testing"

	"glowcheck/internal/store"
)

func TestSQLiteStoreBasicFlow(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "glowcheck.db")
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	if _, ok, err := st.Load("glow-store"); err != nil || ok {
		t.Fatalf("Load() on empty store ok=%v err=%v", ok, err)
	}

	if err := st.Save("glow-store", []byte(`{"streak":1}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Save("glow-store", []byte(`{"streak":2}`)); err != nil {
		t.Fatalf("Save() overwrite error = %v", err)
	}

	got, ok, err := st.Load("glow-store")
	if err != nil || !ok {
		t.Fatalf("Load() err=%v ok=%v", err, ok)
	}
	if string(got) != `{"streak":2}` {
		t.Fatalf("expected latest value, got %s", got)
	}
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "glowcheck.db")
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	if err := st.Save("glow-store", []byte(`{"name":"Ava"}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() reopen error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	got, ok, err := reopened.Load("glow-store")
	if err != nil || !ok {
		t.Fatalf("Load() err=%v ok=%v", err, ok)
	}
	if string(got) != `{"name":"Ava"}` {
		t.Fatalf("unexpected value after reopen: %s", got)
	}
}

func TestSQLiteStoreRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "glowcheck.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if err := st.Save("glow-store", []byte("{not json")); err != store.ErrInvalidValue {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}
