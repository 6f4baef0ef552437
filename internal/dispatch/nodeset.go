// Package dispatch implements the master-side remote dispatcher
// (spec §2, §4.6, C8): compute the target node set from include/
// exclude selectors, then use the worker pool (C7) to rsync the
// overlay tree to each node and invoke the client over ssh.
//
// nodeset.go is grounded on original_source/synctool_master.py and
// synctool_config.py's get_nodes_in_groups/ignore-group filtering and
// default_nodeset handling.
package dispatch

import (
	"sort"

	"github.com/Linuxtester/synctool/internal/group"
)

// Node is a master-side view of one managed host.
type Node struct {
	Name    string
	Groups  group.List
	Address string // IP or hostname from config, else the node name; Dispatcher.Run addresses rsync/ssh by node name and does not read it
}

// Fleet is the full set of configured nodes, keyed by name.
type Fleet map[string]Node

// NodesInGroups returns every node in fleet whose group list contains
// any of groups, in fleet-iteration order collapsed to a stable,
// deduplicated slice (sorted by name for determinism).
func NodesInGroups(fleet Fleet, groups []string) []string {
	var out []string
	for name, n := range fleet {
		for _, g := range groups {
			if n.Groups.Contains(g) {
				out = append(out, name)
				break
			}
		}
	}
	sortStrings(out)
	return out
}

// Selectors bundles the CLI include/exclude inputs from spec.md §4.6.
type Selectors struct {
	Nodes          []string
	Groups         []string
	ExcludeNodes   []string
	ExcludeGroups  []string
	DefaultNodeset []string // config's default_nodeset, used when Nodes and Groups are both empty
}

// IgnoreSet is the set of groups that remove a node from any nodeset,
// per spec.md §3's "Ignore set" ("none" is always a member).
type IgnoreSet map[string]bool

// NewIgnoreSet builds an IgnoreSet from configured ignore_group
// entries, always including the reserved "none" marker.
func NewIgnoreSet(groups []string) IgnoreSet {
	s := make(IgnoreSet, len(groups)+1)
	s[group.None] = true
	for _, g := range groups {
		s[g] = true
	}
	return s
}

// Ignored reports whether n's group list intersects the ignore set.
func (s IgnoreSet) Ignored(n Node) bool {
	for g := range s {
		if n.Groups.Contains(g) {
			return true
		}
	}
	return false
}

// BuildNodeset computes the dispatched node set per spec.md §4.6:
// start from --node ∪ nodes-in-groups(--group) (or default_nodeset if
// both are empty), remove --exclude and nodes-in-groups(--exclude-
// group), then remove ignored nodes. ignoredNames reports every node
// removed for being in the ignore set, for the "(ignored)" notice
// spec.md §4.6 describes (suppressed by the caller when
// --filter-ignored is set).
func BuildNodeset(fleet Fleet, sel Selectors, ignore IgnoreSet) (nodeset []string, ignoredNames []string) {
	include := make(map[string]bool)
	for _, n := range sel.Nodes {
		include[n] = true
	}
	for _, n := range NodesInGroups(fleet, sel.Groups) {
		include[n] = true
	}
	if len(sel.Nodes) == 0 && len(sel.Groups) == 0 {
		for _, n := range sel.DefaultNodeset {
			include[n] = true
		}
	}

	for _, n := range sel.ExcludeNodes {
		delete(include, n)
	}
	for _, n := range NodesInGroups(fleet, sel.ExcludeGroups) {
		delete(include, n)
	}

	for name := range include {
		node, ok := fleet[name]
		if ok && ignore.Ignored(node) {
			ignoredNames = append(ignoredNames, name)
			delete(include, name)
		}
	}

	for name := range include {
		nodeset = append(nodeset, name)
	}
	sortStrings(nodeset)
	sortStrings(ignoredNames)
	return nodeset, ignoredNames
}

func sortStrings(s []string) {
	sort.Strings(s)
}
