package fsx

import (
	"fmt"
	"strings"

	"github.com/pkg/xattr"
)

// Xattr is the set of extended attributes of a filesystem entry. Copying
// them is optional (MetaOptions.SyncXattr, off by default) since the
// original synctool has no notion of xattr; this is a supplement.
type Xattr map[string]string

func (x Xattr) String() string {
	var b strings.Builder
	for k, v := range x {
		fmt.Fprintf(&b, "%s=%s\n", k, v)
	}
	return b.String()
}

// Equal reports whether x and y hold the same keys and values.
func (x Xattr) Equal(y Xattr) bool {
	if len(x) != len(y) {
		return false
	}
	for k, v := range x {
		if w, ok := y[k]; !ok || v != w {
			return false
		}
	}
	return true
}

// GetXattr returns all extended attributes of nm, following symlinks.
func GetXattr(nm string) (Xattr, error) {
	return fetch(nm, xattr.List, xattr.Get)
}

// LgetXattr is like GetXattr but does not follow symlinks.
func LgetXattr(nm string) (Xattr, error) {
	return fetch(nm, xattr.LList, xattr.LGet)
}

// ReplaceXattr replaces all extended attributes of nm with x.
func ReplaceXattr(nm string, x Xattr) error {
	return repl(nm, x, xattr.List, xattr.Remove, xattr.Set)
}

// LreplaceXattr is like ReplaceXattr but does not follow symlinks.
func LreplaceXattr(nm string, x Xattr) error {
	return repl(nm, x, xattr.LList, xattr.LRemove, xattr.LSet)
}

func fetch(nm string, list func(string) ([]string, error), get func(string, string) ([]byte, error)) (Xattr, error) {
	keys, err := list(nm)
	if err != nil {
		// many filesystems simply don't support xattr; treat as empty
		return Xattr{}, nil
	}
	x := make(Xattr, len(keys))
	for _, k := range keys {
		b, err := get(nm, k)
		if err != nil {
			return nil, &PathError{"xattr-get", nm, err}
		}
		x[k] = string(b)
	}
	return x, nil
}

func repl(nm string, x Xattr, list func(string) ([]string, error), del func(string, string) error, set func(string, string, []byte) error) error {
	keys, err := list(nm)
	if err == nil {
		for _, k := range keys {
			if err := del(nm, k); err != nil {
				return &PathError{"xattr-clear", nm, err}
			}
		}
	}
	for k, v := range x {
		if err := set(nm, k, []byte(v)); err != nil {
			return &PathError{"xattr-set", nm, err}
		}
	}
	return nil
}
