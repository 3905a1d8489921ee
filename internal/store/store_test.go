package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) err = %v, want ErrNotFound", err)
	}

	if err := s.Put(ctx, "k", []byte(`"v1"`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != `"v1"` {
		t.Errorf("Get(k) = (%q, %v), want (%q, nil)", got, err, `"v1"`)
	}

	// Last write wins.
	if err := s.Put(ctx, "k", []byte(`"v2"`)); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	got, _ = s.Get(ctx, "k")
	if string(got) != `"v2"` {
		t.Errorf("Get(k) after overwrite = %q, want %q", got, `"v2"`)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemory())
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ytsus.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	type payload struct {
		Name  string `json:"name"`
		Votes int    `json:"votes"`
	}

	in := payload{Name: "Some Channel", Votes: 7}
	if err := PutJSON(ctx, s, "p", in); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	var out payload
	if err := GetJSON(ctx, s, "p", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out != in {
		t.Errorf("roundtrip = %+v, want %+v", out, in)
	}

	var missing payload
	if err := GetJSON(ctx, s, "nope", &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetJSON(missing) err = %v, want ErrNotFound", err)
	}
}
