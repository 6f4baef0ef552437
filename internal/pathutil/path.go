// Package pathutil canonicalizes user-supplied paths and converts
// between full destination paths and the abbreviated "terse" form used
// in output and as --single/--diff/--ref shorthand (spec §4.2, §6).
//
// Ported from original_source/src/synctool/lib.py's strip_multiple_slashes,
// strip_trailing_slash, terse_path and terse_match. The original's own
// comment on terse_match notes it's "bugged for source paths" but "is
// used with dest paths only anyway" — --single/--diff/--ref always take
// a destination path, so a //-prefixed argument here is a terse pattern
// to match, never a literal source path to open.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultMaxLen = 55

// Clean removes duplicate and trailing path separators, the way the
// original's strip_path() does (distinct from filepath.Clean, which
// also resolves "." and ".." components we don't want touched here —
// overlay paths are always absolute and literal).
func Clean(path string) string {
	if path == "" {
		return path
	}
	for strings.Contains(path, string(filepath.Separator)+string(filepath.Separator)) {
		path = strings.ReplaceAll(path, string(filepath.Separator)+string(filepath.Separator), string(filepath.Separator))
	}
	for len(path) > 1 && path[len(path)-1] == filepath.Separator {
		path = path[:len(path)-1]
	}
	return path
}

// Terse renders path as an abbreviated "//a/.../z" form when it's longer
// than maxLen (0 selects the default of 55, matching the original). varDir
// is the root that the leading "//" stands for (normally "/", but the
// original also special-cased its own install/var directory).
func Terse(path, varDir string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}

	if varDir != "" && varDir != string(filepath.Separator) {
		prefix := varDir + string(filepath.Separator)
		if strings.HasPrefix(path, prefix) {
			path = string(filepath.Separator) + string(filepath.Separator) + strings.TrimPrefix(path, prefix)
		}
	}

	if len(path) <= maxLen {
		return path
	}

	parts := strings.Split(path, string(filepath.Separator))
	for len(parts) >= 3 {
		mid := len(parts) / 2
		if parts[mid] == "..." {
			break
		}
		trial := make([]string, len(parts))
		copy(trial, parts)
		trial[mid] = "..."
		candidate := strings.Join(trial, string(filepath.Separator))
		if strings.HasPrefix(candidate, string(filepath.Separator)) && !strings.HasPrefix(candidate, string(filepath.Separator)+string(filepath.Separator)) {
			candidate = string(filepath.Separator) + candidate
		}
		if len(candidate) <= maxLen {
			return candidate
		}
		parts = append(parts[:mid], parts[mid+1:]...)
	}
	return strings.Join(parts, string(filepath.Separator))
}

// Match reports whether the terse pattern (e.g. "//etc/.../motd")
// matches the full destination path. Patterns that aren't terse
// (don't start with "//") never match, mirroring the original.
func Match(pattern, destPath string) bool {
	sep := string(filepath.Separator)
	if len(pattern) < 2 || pattern[:2] != sep+sep {
		return false
	}

	marker := sep + "..." + sep
	idx := strings.Index(pattern, marker)
	if idx == -1 {
		// short pattern: "//a/b" means "/a/b" exactly
		return pattern[1:] == destPath
	}

	tail := pattern[idx+len(marker):]
	if len(tail) > len(destPath) || destPath[len(destPath)-len(tail):] != tail {
		return false
	}

	head := pattern[1 : idx+1]
	return len(head) <= len(destPath) && destPath[:len(head)] == head
}

// MatchMany returns the index of the first terse pattern in patterns
// that matches destPath, or -1 if none do.
func MatchMany(destPath string, patterns []string) int {
	for i, p := range patterns {
		if Match(p, destPath) {
			return i
		}
	}
	return -1
}

// ResolveInput prepares a user-supplied CLI path argument (--single,
// --diff, --ref) for lookup against a walk Result. A //-prefixed
// argument is a terse destination pattern and is passed through
// unchanged for Match/FindTerse to match against the chosen map;
// anything else is cleaned as a plain destination path.
func ResolveInput(arg string) (string, error) {
	sep := string(os.PathSeparator)
	if len(arg) >= 2 && arg[:2] == sep+sep {
		return arg, nil
	}
	return Clean(arg), nil
}
