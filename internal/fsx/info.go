// Package fsx provides the low-level filesystem primitives the overlay
// engine builds on: a normalized stat/lstat snapshot (Info), atomic
// temp-file-then-rename writes (SafeFile), platform-optimized file copy,
// and metadata cloning (mode/uid/gid/mtime/xattr).
package fsx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// Info is a normalized snapshot of a filesystem entry's metadata. It
// satisfies fs.FileInfo and additionally carries the fields the sync
// engine needs to compare two entries for equality: inode/device
// numbers, link count, ownership and (optionally) extended attributes.
type Info struct {
	Ino  uint64
	Siz  int64
	Dev  uint64
	Rdev uint64

	Mod   fs.FileMode
	Uid   uint32
	Gid   uint32
	Nlink uint32

	Atim time.Time
	Mtim time.Time
	Ctim time.Time

	Xattr Xattr

	path string
}

var _ fs.FileInfo = &Info{}

// Stat is like os.Stat but returns a normalized Info.
func Stat(nm string) (*Info, error) {
	var ii Info
	if err := Statm(nm, &ii); err != nil {
		return nil, err
	}
	return &ii, nil
}

// Statm is like Stat but fills caller-supplied memory.
func Statm(nm string, fi *Info) error {
	var st syscall.Stat_t
	if err := syscall.Stat(nm, &st); err != nil {
		return &PathError{"stat", nm, err}
	}
	x, err := GetXattr(nm)
	if err != nil {
		return &PathError{"stat-xattr", nm, err}
	}
	makeInfo(fi, nm, &st, x)
	return nil
}

// Lstat is like os.Lstat but returns a normalized Info.
func Lstat(nm string) (*Info, error) {
	var ii Info
	if err := Lstatm(nm, &ii); err != nil {
		return nil, err
	}
	return &ii, nil
}

// Lstatm is like Lstat but fills caller-supplied memory.
func Lstatm(nm string, fi *Info) error {
	var st syscall.Stat_t
	if err := syscall.Lstat(nm, &st); err != nil {
		return &PathError{"lstat", nm, err}
	}
	x, err := LgetXattr(nm)
	if err != nil {
		return &PathError{"lstat-xattr", nm, err}
	}
	makeInfo(fi, nm, &st, x)
	return nil
}

// Fstat is like os.File.Stat but returns a normalized Info.
func Fstat(fd *os.File) (*Info, error) {
	return Lstat(fd.Name())
}

// Clone returns a deep copy of ii.
func (ii *Info) Clone() *Info {
	jj := new(Info)
	*jj = *ii
	jj.Xattr = make(Xattr, len(ii.Xattr))
	for k, v := range ii.Xattr {
		jj.Xattr[k] = v
	}
	return jj
}

func (ii *Info) String() string {
	return fmt.Sprintf("%s: %d bytes, nlink=%d, %s %s", ii.Name(), ii.Siz, ii.Nlink, ii.ModTime().UTC(), ii.Mode())
}

// Path returns the path this Info was obtained from.
func (ii *Info) Path() string { return ii.path }

// Name returns the basename of the entry (fs.FileInfo).
func (ii *Info) Name() string { return filepath.Base(ii.path) }

// Size returns the entry's size in bytes (fs.FileInfo).
func (ii *Info) Size() int64 { return ii.Siz }

// Mode returns the file mode bits (fs.FileInfo).
func (ii *Info) Mode() fs.FileMode { return ii.Mod }

// ModTime returns the modification time (fs.FileInfo).
func (ii *Info) ModTime() time.Time { return ii.Mtim }

// IsDir reports whether ii is a directory (fs.FileInfo).
func (ii *Info) IsDir() bool { return ii.Mod.IsDir() }

// IsRegular reports whether ii is a regular file.
func (ii *Info) IsRegular() bool { return ii.Mod.IsRegular() }

// IsSymlink reports whether ii is a symbolic link.
func (ii *Info) IsSymlink() bool { return ii.Mod&fs.ModeSymlink != 0 }

// IsSameFS reports whether a and b live on the same filesystem.
func (a *Info) IsSameFS(b *Info) bool {
	return a.Dev == b.Dev && a.Rdev == b.Rdev
}

// Sys returns ii itself (fs.FileInfo).
func (ii *Info) Sys() any { return ii }

func ts2time(sec, nsec int64) time.Time {
	return time.Unix(sec, nsec)
}

// PathError is the common wrapped-error shape used across fsx.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("fsx: %s %q: %s", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }
