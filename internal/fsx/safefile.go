package fsx

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// SafeFile is an io.WriteCloser backed by a temporary file that is
// atomically renamed onto the target path on Close, and removed on
// Abort. This is the write primitive behind the sync object's
// "create .new, rename over dest" protocol (spec §4.3).
//
//	sf, err := NewSafeFile(...)
//	defer sf.Abort()
//	... write to sf ...
//	return sf.Close()
//
// It is safe to call Abort after Close and vice versa; whichever call
// happens first decides the outcome.
type SafeFile struct {
	*os.File

	err    error
	name   string
	closed atomic.Int64 // <0 aborted, >0 closed, 0 open
}

var _ io.WriteCloser = &SafeFile{}

const (
	// OptOverwrite allows NewSafeFile to replace an existing regular file.
	OptOverwrite uint32 = 1 << iota
)

var errAborted = errors.New("safefile: aborted; not committed")

// NewSafeFile creates a temp file alongside nm that will either be
// aborted or atomically renamed onto nm.
func NewSafeFile(nm string, opts uint32, flag int, perm os.FileMode) (*SafeFile, error) {
	if st, err := Stat(nm); err == nil {
		if opts&OptOverwrite == 0 {
			return nil, fmt.Errorf("safefile: won't overwrite existing %s", nm)
		}
		if !st.Mode().IsRegular() {
			return nil, fmt.Errorf("safefile: %s is not a regular file", nm)
		}
	}

	flag |= os.O_CREATE | os.O_TRUNC
	if flag&(os.O_RDWR|os.O_WRONLY) == 0 {
		flag |= os.O_RDWR
	}

	tmp := fmt.Sprintf("%s.new.%d.%x", nm, os.Getpid(), randU32())
	fd, err := os.OpenFile(tmp, flag, perm)
	if err != nil {
		return nil, err
	}

	return &SafeFile{File: fd, name: nm}, nil
}

func (sf *SafeFile) isOpen() bool { return sf.closed.Load() == 0 }

// Write implements io.Writer; once an error occurs, further writes fail fast.
func (sf *SafeFile) Write(b []byte) (int, error) {
	if sf.err != nil {
		return 0, sf.err
	}
	if !sf.isOpen() {
		return 0, fmt.Errorf("safefile: %s is not open", sf.Name())
	}
	var z int
	z, sf.err = fullWrite(sf.File, b)
	return z, sf.err
}

// Abort discards the temp file. Safe to call multiple times, and safe
// to call after Close (a no-op in that case).
func (sf *SafeFile) Abort() {
	n := sf.closed.Load()
	if n != 0 {
		return
	}
	sf.File.Close()
	os.Remove(sf.Name())
	sf.closed.Store(-1)
}

// Close flushes data, closes the temp file, and renames it onto the
// final path. If a previous Write failed, Close aborts instead.
func (sf *SafeFile) Close() error {
	if sf.err != nil {
		sf.Abort()
		return sf.err
	}

	n := sf.closed.Load()
	if n < 0 {
		return errAborted
	}
	if n > 0 {
		return sf.err
	}

	if sf.err = sf.Sync(); sf.err != nil {
		return sf.err
	}
	if sf.err = sf.File.Close(); sf.err != nil {
		return sf.err
	}
	if sf.err = os.Rename(sf.Name(), sf.name); sf.err != nil {
		return sf.err
	}
	sf.closed.Store(1)
	return nil
}

func fullWrite(d *os.File, b []byte) (int, error) {
	var z int
	for len(b) > 0 {
		n, err := d.Write(b)
		if err != nil {
			return z, fmt.Errorf("safefile: %w", err)
		}
		b = b[n:]
		z += n
	}
	return z, nil
}

func randU32() uint32 {
	var b [4]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		panic(fmt.Sprintf("fsx: can't read random bytes: %s", err))
	}
	return binary.LittleEndian.Uint32(b[:])
}
