package syncobj

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Linuxtester/synctool/internal/fsx"
	"github.com/Linuxtester/synctool/internal/statcache"
)

func TestApplyRegularCreatesNew(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, src, dst, REGULAR)
	if err != nil {
		t.Fatal(err)
	}

	act, err := obj.Apply(Options{Meta: fsx.DefaultMetaOptions})
	if err != nil {
		t.Fatalf("apply: %s", err)
	}
	if !act.Changed || act.Summary != "new" {
		t.Fatalf("got %+v", act)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Fatalf("content mismatch: %q", b)
	}
}

func TestApplyRegularOverwriteSavesBackup(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("new-content"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old-content"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, src, dst, REGULAR)
	if err != nil {
		t.Fatal(err)
	}

	act, err := obj.Apply(Options{Meta: fsx.DefaultMetaOptions})
	if err != nil {
		t.Fatalf("apply: %s", err)
	}
	if act.Summary != "upd" {
		t.Fatalf("expected upd, got %q", act.Summary)
	}

	b, err := os.ReadFile(dst)
	if err != nil || string(b) != "new-content" {
		t.Fatalf("dst not updated: %q %v", b, err)
	}
	saved, err := os.ReadFile(dst + ".saved")
	if err != nil || string(saved) != "old-content" {
		t.Fatalf("backup missing or wrong: %q %v", saved, err)
	}
}

func TestApplyIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("same"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, src, dst, REGULAR)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := obj.Apply(Options{Meta: fsx.DefaultMetaOptions}); err != nil {
		t.Fatal(err)
	}

	cache2 := statcache.New()
	obj2, err := New(cache2, src, dst, REGULAR)
	if err != nil {
		t.Fatal(err)
	}
	act, err := obj2.Apply(Options{Meta: fsx.DefaultMetaOptions})
	if err != nil {
		t.Fatal(err)
	}
	if act.Changed {
		t.Fatalf("expected no-op on second apply, got %+v", act)
	}
}

func TestApplyDryRunDoesNotMutate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, src, dst, REGULAR)
	if err != nil {
		t.Fatal(err)
	}
	act, err := obj.Apply(Options{DryRun: true, Meta: fsx.DefaultMetaOptions})
	if err != nil {
		t.Fatal(err)
	}
	if !act.Changed {
		t.Fatalf("expected Changed=true to describe the intended action")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("dry-run must not create %s", dst)
	}
}

func TestEraseSaved(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(dst+".saved", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, "", dst, ERASE_SAVED)
	if err != nil {
		t.Fatal(err)
	}
	act, err := obj.Apply(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !act.Changed {
		t.Fatalf("expected erase to report changed")
	}
	if _, err := os.Stat(dst + ".saved"); !os.IsNotExist(err) {
		t.Fatalf("expected .saved removed")
	}
}

func TestHardDeleteFile(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(dst, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	cache := statcache.New()
	obj, err := New(cache, "", dst, DELETE)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := obj.Apply(Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected dst removed")
	}
}
