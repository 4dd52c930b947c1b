package store

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/abelbrown/mentions/internal/classify"
)

// Verify Store satisfies the override persister at compile time.
var _ classify.Persister = (*Store)(nil)

func openMemory(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpen(t *testing.T) {
	st := openMemory(t)

	var name string
	err := st.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name)
	if err != nil {
		t.Fatalf("kv table not created: %v", err)
	}
	if name != "kv" {
		t.Errorf("expected table name 'kv', got %q", name)
	}
}

func TestPutGetDelete(t *testing.T) {
	st := openMemory(t)

	if err := st.Put("ns", "1", "VPS"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := st.Get("ns", "1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "VPS" {
		t.Errorf("expected VPS, got %q", got)
	}

	if err := st.Put("ns", "1", "CDN"); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	if got, _ := st.Get("ns", "1"); got != "CDN" {
		t.Errorf("expected overwrite to CDN, got %q", got)
	}

	if err := st.Delete("ns", "1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := st.Get("ns", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := st.Delete("ns", "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestNamespacesAreIsolated(t *testing.T) {
	st := openMemory(t)

	if err := st.Put("a", "k", "1"); err != nil {
		t.Fatal(err)
	}
	if err := st.Put("b", "k", "2"); err != nil {
		t.Fatal(err)
	}

	a, err := st.LoadNamespace("a")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 1 || a["k"] != "1" {
		t.Errorf("unexpected namespace a: %v", a)
	}

	entries, err := st.List("b")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Value != "2" {
		t.Fatalf("unexpected namespace b: %+v", entries)
	}
	if entries[0].UpdatedAt.IsZero() {
		t.Error("expected updated_at to be set")
	}
}

func TestListOrderedByKey(t *testing.T) {
	st := openMemory(t)
	for _, k := range []string{"30", "10", "20"} {
		if err := st.Put("ns", k, "x"); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := st.List("ns")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Key != "10" || entries[2].Key != "30" {
		t.Errorf("expected keys ordered, got %+v", entries)
	}
}

func TestOverridesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "mentions.db")

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	o, err := classify.NewOverrides(st)
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Set(42, "Billing"); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer st.Close()

	o, err = classify.NewOverrides(st)
	if err != nil {
		t.Fatal(err)
	}
	if label, ok := o.Get(42); !ok || label != "Billing" {
		t.Errorf("expected Billing after reopen, got %q (%v)", label, ok)
	}
}

func TestConcurrentPuts(t *testing.T) {
	st := openMemory(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := st.Put("ns", string(rune('a'+i)), "v"); err != nil {
				t.Errorf("Put %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	all, err := st.LoadNamespace("ns")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 20 {
		t.Errorf("expected 20 entries, got %d", len(all))
	}
}
