package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Linuxtester/synctool/internal/group"
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

func TestWalkPicksHighestPriority(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "motd._all"), "Hello")
	writeFile(t, filepath.Join(root, "all", "etc", "motd._web"), "Web node")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Validate(); err != nil {
		t.Fatal(err)
	}

	e, ok := res.Chosen["/etc/motd"]
	if !ok {
		t.Fatalf("expected /etc/motd to be chosen")
	}
	if e.Group != "web" {
		t.Fatalf("expected web entry to win, got group %q", e.Group)
	}
}

// TestWalkCrossSubtreeAmbiguity exercises spec.md §8 scenario S3: two
// distinct subtrees ("all" and "other") offering the same destination
// at the same priority must be reported as ambiguous, not silently
// shadowed by directory order.
func TestWalkCrossSubtreeAmbiguity(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "motd._web"), "from all")
	writeFile(t, filepath.Join(root, "other", "etc", "motd._web"), "from other")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Validate(); err == nil {
		t.Fatalf("expected an ambiguity error")
	}
	if len(res.Ambiguous) != 1 || res.Ambiguous[0].DstPath != "/etc/motd" {
		t.Fatalf("expected one ambiguity at /etc/motd, got %v", res.Ambiguous)
	}
	if _, ok := res.Chosen["/etc/motd"]; ok {
		t.Fatalf("an ambiguous destination must not appear in Chosen")
	}
}

func TestWalkTraversesPlainDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "cron.d", "job._all"), "* * * * * true")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Chosen["/etc/cron.d/job"]; !ok {
		t.Fatalf("expected nested file under an unsuffixed directory to be reachable, got %v", res.Chosen)
	}
}

func TestInsertDetectsTiePriority(t *testing.T) {
	m := make(map[string]pending)
	insert(m, "/etc/motd", Entry{SrcPath: "/overlay/a/motd._web", Priority: 1})
	insert(m, "/etc/motd", Entry{SrcPath: "/overlay/b/motd._web", Priority: 1})

	p := m["/etc/motd"]
	if len(p.entries) != 2 {
		t.Fatalf("expected a tie recorded as 2 entries, got %d", len(p.entries))
	}
}

func TestInsertStrictlyBetterWins(t *testing.T) {
	m := make(map[string]pending)
	insert(m, "/etc/motd", Entry{SrcPath: "/overlay/a/motd._all", Priority: 3})
	insert(m, "/etc/motd", Entry{SrcPath: "/overlay/b/motd._web", Priority: 1})

	p := m["/etc/motd"]
	if len(p.entries) != 1 || p.entries[0].SrcPath != "/overlay/b/motd._web" {
		t.Fatalf("expected the higher-priority entry alone, got %v", p.entries)
	}
}

func TestWalkSkipsUnsuffixedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "legacy"), "no suffix")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Chosen) != 0 {
		t.Fatalf("expected unsuffixed file to be skipped, got %v", res.Chosen)
	}
}

func TestWalkDropsNonApplicableGroup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "motd._db"), "db only")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Chosen["/etc/motd"]; ok {
		t.Fatalf("non-applicable group entry should not be chosen")
	}
}

func TestWalkExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "skip", "motd._all"), "x")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode, Excludes: []string{"/etc/skip"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Chosen["/etc/skip/motd"]; ok {
		t.Fatalf("excluded path should not be chosen")
	}
}

func TestWalkPostScript(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "motd._all"), "x")
	writeFile(t, filepath.Join(root, "all", "etc", "motd.post._all"), "#!/bin/sh\n")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.PostFor("/etc/motd"); !ok {
		t.Fatalf("expected post script attached to /etc/motd")
	}
}

func TestFindTersePlainPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "all", "etc", "motd._all"), "x")

	groups := group.NewList("web01", []string{"web"})
	res, err := Walk(Options{Root: root, DestRoot: "/", Groups: groups, Mode: OverlayMode})
	if err != nil {
		t.Fatal(err)
	}

	_, status, _ := FindTerse(res, "/etc/motd")
	if status != Found {
		t.Fatalf("expected Found, got %v", status)
	}
	_, status, _ = FindTerse(res, "/etc/nope")
	if status != NotFound {
		t.Fatalf("expected NotFound, got %v", status)
	}
}
