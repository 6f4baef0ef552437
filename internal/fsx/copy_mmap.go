package fsx

import (
	"os"

	"github.com/opencoff/go-mmap"
)

// copyViaMmap copies src to dst by memory-mapping src and streaming the
// pages out. Used whenever src and dst are on different filesystems (no
// reflink possible) or the platform has no cheaper primitive.
func copyViaMmap(dst, src *os.File) error {
	_, err := mmap.Reader(src, func(b []byte) error {
		_, err := fullWrite(dst, b)
		return err
	})
	if err != nil {
		return err
	}
	if _, err := dst.Seek(0, os.SEEK_SET); err != nil {
		return err
	}
	return dst.Sync()
}
