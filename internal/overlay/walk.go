// Package overlay implements the group-aware overlay resolver (spec
// §2-4, C4): a single depth-first walk of the master's overlay tree
// that, for every destination path, picks at most one authoritative
// source entry according to the client's group priority.
//
// The traversal shape (an Options struct carrying excludes and a
// filter hook, lstat-first filtering of each entry) is grounded on
// opencoff-go-fio's walk/walk.go, but deliberately de-concurrentized:
// spec.md §5 mandates that the client pass is single-threaded with no
// locking, so unlike the teacher's fan-out walker this one recurses
// plainly and in order.
package overlay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Linuxtester/synctool/internal/fsx"
	"github.com/Linuxtester/synctool/internal/group"
)

// Mode selects which overlay subtree semantics apply to a walk.
type Mode int

const (
	// OverlayMode walks the reconciliation source tree; chosen entries
	// become create/update sync objects.
	OverlayMode Mode = iota
	// DeleteMode walks the delete tree; every chosen regular-file entry
	// becomes a DELETE sync object. Directories are traversal-only and
	// are never themselves deleted (spec.md §9 Open Question a).
	DeleteMode
)

// Entry is one overlay source file or directory discovered during the
// walk, already resolved against the client's group list.
type Entry struct {
	SrcPath  string // full path of the candidate under the overlay root
	DstPath  string // destination path after suffix-stripping and re-rooting
	Group    string
	Priority int
	IsDir    bool
	IsPost   bool
	Info     *fsx.Info
}

// Options configures a Walk.
type Options struct {
	// Root is the overlay (or delete) subtree root on the master, e.g.
	// "/var/lib/synctool/overlay" or ".../delete".
	Root string
	// DestRoot is what the stripped, re-rooted destination path is
	// relative to — normally "/".
	DestRoot string
	Groups   group.List
	Mode     Mode
	// Excludes are destination-relative path prefixes to skip entirely,
	// mirroring opencoff-go-fio's walk Options.Excludes.
	Excludes []string
}

// Ambiguity records two or more overlay entries that tied for highest
// priority at the same destination.
type Ambiguity struct {
	DstPath  string
	Entries  []Entry
	Priority int
}

// Result is the outcome of a full overlay walk.
type Result struct {
	// Chosen maps destination path to its winning entry, for both
	// regular entries and directories.
	Chosen map[string]Entry
	// Posts maps destination directory (or file) path to its winning
	// .post script entry.
	Posts map[string]Entry
	// Ambiguous lists every destination with a priority tie. A non-empty
	// Ambiguous means the walk as a whole must be treated as failed
	// (spec.md §4.2, §7): the caller applies nothing.
	Ambiguous []Ambiguity
}

type pending struct {
	priority int
	entries  []Entry
}

// Walk performs the depth-first traversal described in spec.md §4.2
// and returns the chosen map, post-script map and any ambiguities.
//
// opt.Root contains one or more subtrees (spec.md §6 "Root contains
// subtrees overlay/, delete/ ... within each subtree, directories
// mirror the destination filesystem"); every immediate child
// directory of opt.Root is walked as an independent subtree and
// merged into the same chosen/post maps, so two subtrees offering the
// same destination at the same priority (spec.md §8 scenario S3) are
// reported as a genuine ambiguity rather than silently shadowing one
// another.
func Walk(opt Options) (*Result, error) {
	chosen := make(map[string]pending)
	posts := make(map[string]pending)

	subtrees, err := os.ReadDir(opt.Root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range subtrees {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := walkSubtree(filepath.Join(opt.Root, name), opt, chosen, posts); err != nil {
			return nil, err
		}
	}

	res := &Result{Chosen: make(map[string]Entry), Posts: make(map[string]Entry)}
	for dst, p := range chosen {
		if len(p.entries) > 1 {
			res.Ambiguous = append(res.Ambiguous, Ambiguity{DstPath: dst, Entries: p.entries, Priority: p.priority})
			continue
		}
		res.Chosen[dst] = p.entries[0]
	}
	for dst, p := range posts {
		if len(p.entries) > 1 {
			res.Ambiguous = append(res.Ambiguous, Ambiguity{DstPath: dst, Entries: p.entries, Priority: p.priority})
			continue
		}
		res.Posts[dst] = p.entries[0]
	}
	sort.Slice(res.Ambiguous, func(i, j int) bool { return res.Ambiguous[i].DstPath < res.Ambiguous[j].DstPath })

	return res, nil
}

// walkSubtree traverses one subtree root, inserting every applicable
// entry into the shared chosen/posts maps.
func walkSubtree(subRoot string, opt Options, chosen, posts map[string]pending) error {
	return filepath.Walk(subRoot, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == subRoot {
			return nil
		}
		rel, err := filepath.Rel(subRoot, path)
		if err != nil {
			return err
		}
		if strings.HasSuffix(path, ".saved") {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dir, base := filepath.Split(rel)
		stripped, grp, ok := group.Suffix(base)
		if !ok {
			if fi.IsDir() {
				// a plain directory component mirroring the destination
				// path; no group suffix is required on directories that
				// don't themselves need group-specific treatment.
				return nil
			}
			fmt.Fprintf(os.Stderr, "synctool: warning: %s has no group suffix, skipping\n", path)
			return nil
		}
		priority, applies := group.Priority(opt.Groups, grp)
		if !applies {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		isPost := false
		stripped, isPost = group.IsPost(stripped)

		dstPath := filepath.Join(opt.DestRoot, dir, stripped)
		dstPath = filepath.Clean(dstPath)

		for _, ex := range opt.Excludes {
			if dstPath == ex || strings.HasPrefix(dstPath, ex+string(filepath.Separator)) {
				if fi.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		info, ierr := fsx.Lstat(path)
		if ierr != nil {
			return ierr
		}

		e := Entry{
			SrcPath:  path,
			DstPath:  dstPath,
			Group:    grp,
			Priority: priority,
			IsDir:    fi.IsDir(),
			IsPost:   isPost,
			Info:     info,
		}

		target := chosen
		if isPost {
			target = posts
		}
		insert(target, dstPath, e)

		if opt.Mode == DeleteMode && fi.IsDir() {
			// directories in the delete tree are traversal-only: recurse
			// into them but never let them themselves be chosen/deleted.
			delete(chosen, dstPath)
		}

		return nil
	})
}

// insert applies the strictly-better/tie/strictly-worse rule from
// spec.md §4.2 step 3.
func insert(m map[string]pending, dst string, e Entry) {
	cur, ok := m[dst]
	if !ok {
		m[dst] = pending{priority: e.Priority, entries: []Entry{e}}
		return
	}
	switch {
	case e.Priority < cur.priority:
		m[dst] = pending{priority: e.Priority, entries: []Entry{e}}
	case e.Priority == cur.priority:
		cur.entries = append(cur.entries, e)
		m[dst] = cur
	default:
		// strictly worse, ignored
	}
}
