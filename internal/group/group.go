// Package group implements synctool's group membership model (spec
// §2-3, C3): nodes carry an ordered list of group names, and overlay
// entries carry a trailing "._group" suffix that is resolved against
// that list to decide applicability and priority.
//
// Grounded on original_source/src/synctool_config.py's node/group
// bookkeeping (insert_group, get_groups, make_all_groups) and the
// suffix-resolution rules described in spec.md §3.
package group

import "strings"

// All is the implicit group containing every node.
const All = "all"

// None is a reserved marker group, always ignored, used to reset the
// default nodeset.
const None = "none"

// List is a node's ordered group membership: by convention element 0
// is the node's own name and the last element is All.
type List []string

// NewList builds a node's group list the way synctool_config.py's
// insert_group does: nodename first, then any explicitly configured
// groups (deduplicated, order preserved), then "all" last.
func NewList(nodename string, explicit []string) List {
	seen := map[string]bool{nodename: true}
	l := List{nodename}
	for _, g := range explicit {
		if g == nodename || g == All || seen[g] {
			continue
		}
		seen[g] = true
		l = append(l, g)
	}
	return append(l, All)
}

// Index returns the priority (lower is higher priority) of group g in
// l, or -1 if g does not appear. "all" always returns len(l)-1 even if
// the caller's list was built without calling NewList.
func (l List) Index(g string) int {
	for i, x := range l {
		if x == g {
			return i
		}
	}
	if g == All {
		return len(l) - 1
	}
	return -1
}

// Contains reports whether g is a member of l.
func (l List) Contains(g string) bool {
	return l.Index(g) >= 0
}

// Intersects reports whether l shares any member with other.
func (l List) Intersects(other List) bool {
	for _, g := range l {
		for _, h := range other {
			if g == h {
				return true
			}
		}
	}
	return false
}

// Suffix splits a synctool overlay basename on its trailing group
// suffix: the last "." followed by "_", per spec §3. It returns the
// base name with the suffix stripped and the bare group name (without
// the leading underscore). ok is false when name carries no group
// suffix at all — a legacy, unsuffixed file, which spec.md treats as
// an error rather than silently accepting.
func Suffix(name string) (base, grp string, ok bool) {
	idx := lastSuffixSep(name)
	if idx < 0 {
		return name, "", false
	}
	return name[:idx], name[idx+2:], true
}

// lastSuffixSep finds the index of the last "." in name that is
// immediately followed by "_", or -1 if there is none.
func lastSuffixSep(name string) int {
	for i := len(name) - 2; i >= 0; i-- {
		if name[i] == '.' && name[i+1] == '_' {
			return i
		}
	}
	return -1
}

// IsPost reports whether base (as returned by Suffix) carries the
// ".post" marker identifying a post-script rather than a regular
// overlay entry, and returns base with that marker stripped too.
func IsPost(base string) (stripped string, isPost bool) {
	const marker = ".post"
	if strings.HasSuffix(base, marker) {
		return base[:len(base)-len(marker)], true
	}
	return base, false
}

// Priority resolves a suffix group against a node's group list,
// returning the priority index (lower wins) and whether the entry
// applies to that node at all. "all" always resolves to the tail
// index len(l)-1 regardless of whether it was recorded explicitly.
func Priority(l List, grp string) (priority int, applies bool) {
	if grp == All {
		return len(l) - 1, true
	}
	idx := l.Index(grp)
	if idx < 0 {
		return 0, false
	}
	return idx, true
}
