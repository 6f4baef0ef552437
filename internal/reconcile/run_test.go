package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Linuxtester/synctool/internal/fsx"
	"github.com/Linuxtester/synctool/internal/group"
	"github.com/Linuxtester/synctool/internal/syncobj"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRunAppliesChosenEntries(t *testing.T) {
	overlayRoot := t.TempDir()
	destRoot := t.TempDir()

	writeFile(t, filepath.Join(overlayRoot, "all", "etc", "motd._all"), "hello")

	cfg := Config{
		OverlayRoot: overlayRoot,
		DestRoot:    destRoot,
		Groups:      group.NewList("web01", []string{"web"}),
		NoPost:      true,
		Opt:         syncobj.Options{Meta: fsx.DefaultMetaOptions},
	}

	report, err := Run(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failed)
	}

	b, err := os.ReadFile(filepath.Join(destRoot, "etc", "motd"))
	if err != nil {
		t.Fatalf("expected destination written: %s", err)
	}
	if string(b) != "hello" {
		t.Fatalf("content mismatch: %q", b)
	}
}

func TestRunRespectsNoPost(t *testing.T) {
	overlayRoot := t.TempDir()
	destRoot := t.TempDir()

	writeFile(t, filepath.Join(overlayRoot, "all", "etc", "motd._all"), "hello")
	writeFile(t, filepath.Join(overlayRoot, "all", "etc", "motd.post._all"), "#!/bin/sh\nexit 0\n")
	os.Chmod(filepath.Join(overlayRoot, "all", "etc", "motd.post._all"), 0755)

	cfg := Config{
		OverlayRoot: overlayRoot,
		DestRoot:    destRoot,
		Groups:      group.NewList("web01", []string{"web"}),
		NoPost:      true,
		Opt:         syncobj.Options{Meta: fsx.DefaultMetaOptions},
	}

	report, err := Run(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(report.PostOutput) != 0 {
		t.Fatalf("expected no post output with NoPost set, got %v", report.PostOutput)
	}
}
