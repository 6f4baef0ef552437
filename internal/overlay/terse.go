package overlay

import "github.com/Linuxtester/synctool/internal/pathutil"

// LookupStatus is the outcome of a single-destination lookup against
// an already-computed walk Result, used by --diff/--single/--ref.
type LookupStatus int

const (
	Found LookupStatus = iota
	NotFound
	FoundMultiple
)

// FindTerse resolves a user-supplied destination argument (a plain
// path or a terse "//a/.../z" pattern) against the chosen map,
// matching synctool_client.py's single_files/reference/diff_files
// lookup before any of those actions run.
func FindTerse(r *Result, arg string) (Entry, LookupStatus, []Entry) {
	// a plain (non-terse) path names exactly one destination.
	if len(arg) < 2 || arg[0:2] != "//" {
		if e, ok := r.Chosen[arg]; ok {
			return e, Found, nil
		}
		return Entry{}, NotFound, nil
	}

	var matches []Entry
	for dst, e := range r.Chosen {
		if pathutil.Match(arg, dst) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return Entry{}, NotFound, nil
	case 1:
		return matches[0], Found, nil
	default:
		return Entry{}, FoundMultiple, matches
	}
}
