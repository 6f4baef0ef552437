package fsx

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyError describes a failure in a copy/clone/metadata operation.
type CopyError struct {
	Op       string
	Src, Dst string
	Err      error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("fsx: %s %q -> %q: %s", e.Op, e.Src, e.Dst, e.Err)
}
func (e *CopyError) Unwrap() error { return e.Err }

// MetaOptions controls which attributes CloneMetadata/UpdateMetadata
// touch; synctool's sync object passes its Options.Meta through
// unchanged. SyncXattr gates xattr copying and is off in
// DefaultMetaOptions (SPEC_FULL.md §C).
type MetaOptions struct {
	SyncXattr bool
	SyncUID   bool
	SyncGID   bool
}

var DefaultMetaOptions = MetaOptions{SyncUID: true, SyncGID: true}

// CopyRegular copies the regular file src onto the already-created
// destination file d (typically the backing file of a SafeFile),
// choosing the best available OS primitive.
func CopyRegular(d *os.File, src string) error {
	s, err := os.Open(src)
	if err != nil {
		return &CopyError{"open-src", src, d.Name(), err}
	}
	defer s.Close()

	si, err := Lstat(src)
	if err != nil {
		return &CopyError{"lstat-src", src, d.Name(), err}
	}
	di, err := Fstat(d)
	if err != nil {
		return &CopyError{"fstat-dst", src, d.Name(), err}
	}

	if di.IsSameFS(si) {
		err = sysCopyFd(d, s)
	} else {
		err = copyViaMmap(d, s)
	}
	if err != nil {
		return &CopyError{"copy", src, d.Name(), err}
	}
	return nil
}

// CloneFile copies src onto dst (which must not yet exist), including
// all copyable attributes, choosing type-appropriate handling for
// regular files, directories, symlinks and device/fifo nodes.
func CloneFile(dst, src string, opt MetaOptions) error {
	fi, err := Lstat(src)
	if err != nil {
		return &CopyError{"lstat-src", src, dst, err}
	}

	switch {
	case fi.IsRegular():
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return &CopyError{"mkdir-parent", src, dst, err}
		}
		d, err := NewSafeFile(dst, OptOverwrite, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0600)
		if err != nil {
			return &CopyError{"create", src, dst, err}
		}
		defer d.Abort()
		if err := CopyRegular(d.File, src); err != nil {
			return err
		}
		if err := d.Close(); err != nil {
			return &CopyError{"close", src, dst, err}
		}

	case fi.IsDir():
		if err := os.MkdirAll(dst, fi.Mode().Perm()|0100); err != nil {
			return &CopyError{"mkdir", src, dst, err}
		}

	case fi.IsSymlink():
		if err := clonelink(dst, src); err != nil {
			return &CopyError{"symlink", src, dst, err}
		}
		return UpdateMetadata(dst, fi, opt) // symlinks skip chmod

	case fi.Mode()&(fs.ModeDevice|fs.ModeNamedPipe) != 0:
		if err := mknod(dst, fi); err != nil {
			return &CopyError{"mknod", src, dst, err}
		}

	default:
		return &CopyError{"clone", src, dst, fmt.Errorf("unsupported file type %s", fi.Mode())}
	}

	return UpdateMetadata(dst, fi, opt)
}

// CloneMetadata copies src's metadata onto dst.
func CloneMetadata(dst, src string, opt MetaOptions) error {
	fi, err := Lstat(src)
	if err != nil {
		return &CopyError{"lstat-src", src, dst, err}
	}
	return UpdateMetadata(dst, fi, opt)
}

// UpdateMetadata applies fi's mode/uid/gid/mtime/xattr to dst, skipping
// chmod and utimes for symlinks (which have no independent permission
// bits on Linux).
func UpdateMetadata(dst string, fi *Info, opt MetaOptions) error {
	if opt.SyncXattr {
		if err := LreplaceXattr(dst, fi.Xattr); err != nil {
			return &CopyError{"xattr", fi.Path(), dst, err}
		}
	}
	if opt.SyncUID || opt.SyncGID {
		if err := chown(dst, fi); err != nil {
			return &CopyError{"chown", fi.Path(), dst, err}
		}
	}
	if !fi.IsSymlink() {
		if err := chmod(dst, fi); err != nil {
			return &CopyError{"chmod", fi.Path(), dst, err}
		}
		if err := utimes(dst, fi); err != nil {
			return &CopyError{"utimes", fi.Path(), dst, err}
		}
	}
	return nil
}

// Retarget points the symlink at dst directly at targ, without
// consulting any source file. Used by the sync object's SYMLINK kind,
// which stores the target string verbatim (spec §4.3 "Symlinks").
func Retarget(dst, targ string) error {
	return retarget(dst, targ)
}
