package statcache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLstatCachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, "f")
	if err := os.WriteFile(nm, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New()
	a, err := c.Lstat(nm)
	if err != nil {
		t.Fatal(err)
	}

	// mutate on disk; cache must still return the old snapshot
	if err := os.WriteFile(nm, []byte("xx"), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := c.Lstat(nm)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected identical cached pointer")
	}

	c.Invalidate(nm)
	d, err := c.Lstat(nm)
	if err != nil {
		t.Fatal(err)
	}
	if d.Size() != 2 {
		t.Fatalf("expected refreshed size 2, got %d", d.Size())
	}
}

func TestLstatMissing(t *testing.T) {
	c := New()
	_, err := c.Lstat(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
