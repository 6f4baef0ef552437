//go:build unix

package fsx

import (
	"fmt"
	"os"
	"syscall"
)

// chown applies fi's uid/gid to dest.
func chown(dest string, fi *Info) error {
	if err := os.Lchown(dest, int(fi.Uid), int(fi.Gid)); err != nil {
		return fmt.Errorf("chown: %w", err)
	}
	return nil
}

// chmod applies fi's mode bits to dest. Symlinks have no independent
// mode on most unixes, so callers skip this for symlink targets.
func chmod(dest string, fi *Info) error {
	if err := os.Chmod(dest, fi.Mode()&os.ModePerm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}

// utimes applies fi's atime/mtime to dest.
func utimes(dest string, fi *Info) error {
	if err := os.Chtimes(dest, fi.Atim, fi.Mtim); err != nil {
		return fmt.Errorf("utimes: %w", err)
	}
	return nil
}

// clonelink retargets the symlink at dest to point wherever src points.
func clonelink(dest, src string) error {
	targ, err := os.Readlink(src)
	if err != nil {
		return fmt.Errorf("readlink: %w", err)
	}
	return retarget(dest, targ)
}

// retarget sets dest (an existing symlink) to point at targ verbatim,
// without reading any other source file.
func retarget(dest, targ string) error {
	os.Remove(dest)
	if err := os.Symlink(targ, dest); err != nil {
		return fmt.Errorf("symlink: %w", err)
	}
	return nil
}

// mknod recreates a device/fifo special file at dest from fi.
func mknod(dest string, fi *Info) error {
	if err := syscall.Mknod(dest, uint32(fi.Mode()), int(fi.Rdev)); err != nil {
		return fmt.Errorf("mknod: %w", err)
	}
	return nil
}
