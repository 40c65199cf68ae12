package localstore

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "launchdeck.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set("voted:demo:1", "2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set("reminder:demo", `{"lead":600}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Simulated app reload.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if v, ok := s2.Get("voted:demo:1"); !ok || v != "2" {
		t.Errorf("Get after reopen = %q, %v", v, ok)
	}

	if err := s2.Remove("voted:demo:1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := s2.Get("voted:demo:1"); ok {
		t.Error("key present after Remove")
	}
	// Removing an absent key is a no-op.
	if err := s2.Remove("voted:demo:1"); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestStore_KeysPrefix(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "kv.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"voted:demo:1", "voted:demo:2", "reminder:demo"} {
		if err := s.Set(k, "x"); err != nil {
			t.Fatal(err)
		}
	}
	keys := s.Keys("voted:")
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "voted:demo:1" || keys[1] != "voted:demo:2" {
		t.Errorf("Keys = %v", keys)
	}
}

func TestOpen_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := s.Get("anything"); ok {
		t.Error("corrupt store should start empty")
	}
}
