// Package statcache provides a lazy lstat cache (spec §2, C1): a cheap,
// memoized view of a path's existence, kind, mode, uid and gid. The
// sync objects of one pass share one cache instance so that a
// destination path is lstat'd at most once. The overlay walker does not
// use it; it calls fsx.Lstat directly.
//
// The cache is a plain map, not a concurrent one: the client-side
// reconciliation pass is single-threaded by design (spec §5), so there
// is no concurrent writer to guard against.
package statcache

import "github.com/Linuxtester/synctool/internal/fsx"

// Cache memoizes fsx.Lstat results by path.
type Cache struct {
	m map[string]*fsx.Info
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{m: make(map[string]*fsx.Info)}
}

// Clear purges all cached entries.
func (c *Cache) Clear() {
	c.m = make(map[string]*fsx.Info)
}

// Store records fi under its own path, overwriting any previous entry.
func (c *Cache) Store(fi *fsx.Info) {
	c.m[fi.Path()] = fi
}

// Lstat returns the cached Info for path, lstat'ing and caching it on
// first use. A non-existent path returns os.ErrNotExist (wrapped).
func (c *Cache) Lstat(path string) (*fsx.Info, error) {
	if fi, ok := c.m[path]; ok {
		return fi, nil
	}
	fi, err := fsx.Lstat(path)
	if err != nil {
		return nil, err
	}
	c.m[path] = fi
	return fi, nil
}

// Invalidate drops any cached entry for path, forcing the next Lstat to
// re-read the filesystem. Used after a sync object mutates a
// destination, since its stat snapshot is now obsolete.
func (c *Cache) Invalidate(path string) {
	delete(c.m, path)
}
