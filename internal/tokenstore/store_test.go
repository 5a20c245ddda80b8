package tokenstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "tokens.yaml"))
}

func TestLoad_MissingFile(t *testing.T) {
	s := testStore(t)

	tok, err := s.Load("robot.local")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tok.IsZero() {
		t.Errorf("expected zero token, got %+v", tok)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := testStore(t)

	want := Token{ID: "645396955", OwnedBy: "admin", Token: "s3cret"}
	if err := s.Save("robot.local", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Load("robot.local")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestLoad_UnknownHost(t *testing.T) {
	s := testStore(t)

	if err := s.Save("robot-a", Token{ID: "1", OwnedBy: "admin", Token: "a"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tok, err := s.Load("robot-b")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tok.IsZero() {
		t.Errorf("expected zero token for unknown host, got %+v", tok)
	}
}

func TestSave_PreservesOtherHosts(t *testing.T) {
	s := testStore(t)

	hosts := map[string]Token{
		"robot-a": {ID: "1", OwnedBy: "alice", Token: "aaa"},
		"robot-b": {ID: "2", OwnedBy: "bob", Token: "bbb"},
	}
	for h, tok := range hosts {
		if err := s.Save(h, tok); err != nil {
			t.Fatalf("Save(%s) failed: %v", h, err)
		}
	}

	// Overwrite one host's entry and make sure the other survives.
	updated := Token{ID: "3", OwnedBy: "alice", Token: "ccc"}
	if err := s.Save("robot-a", updated); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	gotA, err := s.Load("robot-a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotA != updated {
		t.Errorf("robot-a = %+v, want %+v", gotA, updated)
	}

	gotB, err := s.Load("robot-b")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotB != hosts["robot-b"] {
		t.Errorf("robot-b = %+v, want %+v", gotB, hosts["robot-b"])
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "nested", "deeper", "tokens.yaml"))

	if err := s.Save("robot.local", Token{ID: "1", OwnedBy: "admin", Token: "x"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("token file missing after Save: %v", err)
	}
}

func TestSave_RejectsIDWithoutSecret(t *testing.T) {
	s := testStore(t)

	err := s.Save("robot.local", Token{ID: "42", OwnedBy: "admin"})
	if !errors.Is(err, ErrMissingSecret) {
		t.Errorf("Save = %v, want ErrMissingSecret", err)
	}

	// Nothing should have been written.
	if _, statErr := os.Stat(s.Path()); !os.IsNotExist(statErr) {
		t.Error("token file should not exist after rejected save")
	}
}

func TestSave_ZeroTokenClearsEntry(t *testing.T) {
	s := testStore(t)

	if err := s.Save("robot.local", Token{ID: "1", OwnedBy: "admin", Token: "x"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save("robot.local", Token{}); err != nil {
		t.Fatalf("Save of zero token failed: %v", err)
	}

	tok, err := s.Load("robot.local")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !tok.IsZero() {
		t.Errorf("expected zero token, got %+v", tok)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	s := testStore(t)

	if err := os.MkdirAll(filepath.Dir(s.Path()), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.Path(), []byte("{not yaml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Load("robot.local"); err == nil {
		t.Error("expected error for corrupt token file, got nil")
	}
}
