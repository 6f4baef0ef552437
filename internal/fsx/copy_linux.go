//go:build linux

package fsx

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

const ioChunkSize = 256 * 1024

// sysCopyFd copies src to dst using the best Linux primitive available:
// a reflink clone first, falling back to copy_file_range(2) in chunks.
func sysCopyFd(dst, src *os.File) error {
	d, s := int(dst.Fd()), int(src.Fd())

	if err := unix.IoctlFileClone(d, s); err == nil {
		return nil
	} else if !errAny(err, syscall.ENOTSUP, syscall.ENOSYS, syscall.EXDEV) {
		return err
	}

	st, err := src.Stat()
	if err != nil {
		return err
	}

	var roff, woff int64
	sz := st.Size()
	for sz > 0 {
		n := ioChunkSize
		if int64(n) > sz {
			n = int(sz)
		}
		m, err := unix.CopyFileRange(s, &roff, d, &woff, n, 0)
		if err != nil {
			return err
		}
		if m == 0 {
			return errors.New("copy_file_range: zero-sized transfer")
		}
		sz -= int64(m)
	}
	_, err = dst.Seek(0, os.SEEK_SET)
	return err
}

func errAny(err error, errs ...error) bool {
	for _, e := range errs {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
