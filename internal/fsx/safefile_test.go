package fsx

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeFileCommit(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, "file")

	sf, err := NewSafeFile(nm, 0, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err != nil {
		t.Fatalf("NewSafeFile: %s", err)
	}
	if _, err := sf.Write([]byte("hello")); err != nil {
		t.Fatalf("write: %s", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("close: %s", err)
	}

	b, err := os.ReadFile(nm)
	if err != nil {
		t.Fatalf("readfile: %s", err)
	}
	if string(b) != "hello" {
		t.Fatalf("content mismatch: %q", b)
	}
}

func TestSafeFileAbort(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, "file")

	sf, err := NewSafeFile(nm, 0, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err != nil {
		t.Fatalf("NewSafeFile: %s", err)
	}
	sf.Write([]byte("discarded"))
	sf.Abort()

	if _, err := os.Stat(nm); !os.IsNotExist(err) {
		t.Fatalf("expected %s to not exist after abort", nm)
	}
}

func TestSafeFileNoOverwrite(t *testing.T) {
	dir := t.TempDir()
	nm := filepath.Join(dir, "file")
	if err := os.WriteFile(nm, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewSafeFile(nm, 0, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0644)
	if err == nil {
		t.Fatalf("expected error when overwrite not requested")
	}
}

func TestCloneFileRegular(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.WriteFile(src, []byte("payload"), 0640); err != nil {
		t.Fatal(err)
	}

	if err := CloneFile(dst, src, DefaultMetaOptions); err != nil {
		t.Fatalf("CloneFile: %s", err)
	}

	b, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "payload" {
		t.Fatalf("content mismatch: %q", b)
	}
}
