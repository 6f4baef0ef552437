// Package reconcile implements the directory-change queue (spec §2,
// §4.4, C6) and the pass driver that ties the overlay walker (C4) and
// sync objects (C5) together into one client run.
//
// DirQueue's sort order and single-fire-per-pair accounting are
// grounded on original_source/src/synctool_client.py's DIR_CHANGED
// bookkeeping, sort_directory_pair and run_post_on_directories,
// translated from a Python list sorted with a custom comparator into a
// Go slice sorted with sort.Slice.
package reconcile

import "sort"

// DirPair is a (source_dir, dest_dir) pair whose contents changed
// during the pass.
type DirPair struct {
	SrcDir, DstDir string
}

// DirQueue accumulates DirPairs during a pass, each recorded at most
// once, and can later be flushed in deepest-first order.
type DirQueue struct {
	seen  map[DirPair]bool
	pairs []DirPair
}

// NewDirQueue returns an empty queue.
func NewDirQueue() *DirQueue {
	return &DirQueue{seen: make(map[DirPair]bool)}
}

// Record adds (srcDir, dstDir) if it hasn't already been seen this
// pass. The same dst reached through a different src records a
// distinct entry, since multiple overlays can contribute scripts to
// one directory (spec.md §4.4 point 3).
func (q *DirQueue) Record(srcDir, dstDir string) {
	p := DirPair{SrcDir: srcDir, DstDir: dstDir}
	if q.seen[p] {
		return
	}
	q.seen[p] = true
	q.pairs = append(q.pairs, p)
}

// Sorted returns the recorded pairs ordered by len(DstDir) descending
// (deepest first), ties broken lexically by DstDir, per spec.md §4.4
// point 1.
func (q *DirQueue) Sorted() []DirPair {
	out := make([]DirPair, len(q.pairs))
	copy(out, q.pairs)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].DstDir) != len(out[j].DstDir) {
			return len(out[i].DstDir) > len(out[j].DstDir)
		}
		return out[i].DstDir < out[j].DstDir
	})
	return out
}
