package reconcile

import "testing"

func TestDirQueueDeduped(t *testing.T) {
	q := NewDirQueue()
	q.Record("/overlay/etc", "/etc")
	q.Record("/overlay/etc", "/etc")
	if len(q.pairs) != 1 {
		t.Fatalf("expected dedup, got %d pairs", len(q.pairs))
	}
}

func TestDirQueueDistinctSrcSameDst(t *testing.T) {
	q := NewDirQueue()
	q.Record("/overlay/a/etc", "/etc")
	q.Record("/overlay/b/etc", "/etc")
	if len(q.pairs) != 2 {
		t.Fatalf("expected 2 distinct pairs for differing src, got %d", len(q.pairs))
	}
}

func TestDirQueueSortedDeepestFirst(t *testing.T) {
	q := NewDirQueue()
	q.Record("/overlay/a", "/a")
	q.Record("/overlay/a/b/c", "/a/b/c")
	q.Record("/overlay/a/b", "/a/b")

	sorted := q.Sorted()
	want := []string{"/a/b/c", "/a/b", "/a"}
	for i, w := range want {
		if sorted[i].DstDir != w {
			t.Fatalf("index %d: got %q, want %q (full: %v)", i, sorted[i].DstDir, w, sorted)
		}
	}
}

func TestDirQueueSortedLexicalTiebreak(t *testing.T) {
	q := NewDirQueue()
	q.Record("/overlay/b", "/zzz")
	q.Record("/overlay/a", "/aaa")

	sorted := q.Sorted()
	if sorted[0].DstDir != "/aaa" || sorted[1].DstDir != "/zzz" {
		t.Fatalf("expected lexical tiebreak, got %v", sorted)
	}
}
