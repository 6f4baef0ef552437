package main

import (
	"testing"

	"github.com/Linuxtester/synctool/internal/config"
	"github.com/Linuxtester/synctool/internal/group"
)

func TestBuildFleetAssignsImplicitGroups(t *testing.T) {
	cfg := &config.Config{
		Nodes: map[string]config.NodeDef{
			"web01": {Name: "web01", Groups: []string{"web"}, Address: "10.0.0.1"},
			"db01":  {Name: "db01", Groups: []string{"db"}},
		},
	}
	fleet := buildFleet(cfg)

	web01 := fleet["web01"]
	if web01.Address != "10.0.0.1" {
		t.Fatalf("expected explicit address to win, got %q", web01.Address)
	}
	if !web01.Groups.Contains("web") || !web01.Groups.Contains(group.All) {
		t.Fatalf("expected web01 to carry web and all, got %v", web01.Groups)
	}

	db01 := fleet["db01"]
	if db01.Address != "db01" {
		t.Fatalf("expected node name to fall back as address, got %q", db01.Address)
	}
}

func TestPassthroughArgsForwardsFlags(t *testing.T) {
	o := cliOpts{fix: true, terse: true, tasks: "reboot"}
	args := passthroughArgs(o)

	want := map[string]bool{"--fix": false, "--terse": false, "--masterlog": false}
	for _, a := range args {
		if _, ok := want[a]; ok {
			want[a] = true
		}
	}
	for flag, seen := range want {
		if !seen {
			t.Fatalf("expected %s in passthrough args, got %v", flag, args)
		}
	}

	found := false
	for i, a := range args {
		if a == "--tasks" && i+1 < len(args) && args[i+1] == "reboot" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected --tasks reboot in passthrough args, got %v", args)
	}
}

func TestPassthroughArgsOmitsUnsetFlags(t *testing.T) {
	args := passthroughArgs(cliOpts{})
	for _, a := range args {
		if a == "--fix" || a == "--terse" {
			t.Fatalf("did not expect %s with no flags set, got %v", a, args)
		}
	}
}

func TestIgnoredNoticesDefaultPrints(t *testing.T) {
	lines := ignoredNotices([]string{"web01", "db01"}, false)
	want := []string{"web01 (ignored)", "db01 (ignored)"}
	if len(lines) != len(want) {
		t.Fatalf("expected %v, got %v", want, lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, lines)
		}
	}
}

func TestIgnoredNoticesFilterIgnoredSuppresses(t *testing.T) {
	lines := ignoredNotices([]string{"web01", "db01"}, true)
	if len(lines) != 0 {
		t.Fatalf("expected no notices with --filter-ignored, got %v", lines)
	}
}
