//go:build unix

package syncobj

import "golang.org/x/sys/unix"

// umaskSet sets the process umask and returns the previous value, the
// same call the client uses at startup to capture the admin's umask
// before switching to a restrictive working umask (spec.md §5).
func umaskSet(mask int) int {
	return unix.Umask(mask)
}
