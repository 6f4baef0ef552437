package group

import "testing"

func TestNewListOrderAndDedup(t *testing.T) {
	l := NewList("web01", []string{"web", "linux", "web", "all"})
	want := List{"web01", "web", "linux", "all"}
	if len(l) != len(want) {
		t.Fatalf("got %v, want %v", l, want)
	}
	for i := range want {
		if l[i] != want[i] {
			t.Fatalf("got %v, want %v", l, want)
		}
	}
}

func TestIndexAndContains(t *testing.T) {
	l := List{"web01", "web", "linux", "all"}
	if l.Index("web") != 1 {
		t.Fatalf("expected index 1")
	}
	if l.Index("db") != -1 {
		t.Fatalf("expected -1 for absent group")
	}
	if !l.Contains("linux") {
		t.Fatalf("expected contains linux")
	}
}

func TestIntersects(t *testing.T) {
	a := List{"web01", "web", "all"}
	b := List{"ignoreme", "web"}
	if !a.Intersects(b) {
		t.Fatalf("expected intersection on 'web'")
	}
	c := List{"db", "none"}
	if a.Intersects(c) {
		t.Fatalf("unexpected intersection")
	}
}

func TestSuffixBasic(t *testing.T) {
	base, grp, ok := Suffix("motd._web")
	if !ok || base != "motd" || grp != "web" {
		t.Fatalf("got base=%q grp=%q ok=%v", base, grp, ok)
	}
}

func TestSuffixMissingIsError(t *testing.T) {
	_, _, ok := Suffix("motd")
	if ok {
		t.Fatalf("expected ok=false for unsuffixed name")
	}
}

func TestSuffixAll(t *testing.T) {
	base, grp, ok := Suffix("motd._all")
	if !ok || base != "motd" || grp != "all" {
		t.Fatalf("got base=%q grp=%q ok=%v", base, grp, ok)
	}
}

func TestIsPost(t *testing.T) {
	base, isPost := IsPost("motd.post")
	if !isPost || base != "motd" {
		t.Fatalf("got base=%q isPost=%v", base, isPost)
	}
	base, isPost = IsPost("motd")
	if isPost || base != "motd" {
		t.Fatalf("expected non-post unchanged")
	}
}

func TestPriorityAllIsTail(t *testing.T) {
	l := List{"web01", "web", "all"}
	pri, applies := Priority(l, "all")
	if !applies || pri != 2 {
		t.Fatalf("got pri=%d applies=%v", pri, applies)
	}
}

func TestPriorityNotApplicable(t *testing.T) {
	l := List{"web01", "web", "all"}
	_, applies := Priority(l, "db")
	if applies {
		t.Fatalf("expected not applicable")
	}
}

func TestPriorityMonotonicity(t *testing.T) {
	l := List{"web01", "web", "linux", "all"}
	pWeb, _ := Priority(l, "web")
	pLinux, _ := Priority(l, "linux")
	if !(pWeb < pLinux) {
		t.Fatalf("expected web (%d) to outrank linux (%d)", pWeb, pLinux)
	}
}
