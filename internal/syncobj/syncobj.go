// Package syncobj implements the sync object (spec §2-4, C5): the
// per-(source, destination) value compared and applied by the client
// reconciliation pass.
//
// The atomic write protocol (rename-to-.saved, write-to-temp,
// rename-over-dest) is grounded on opencoff-go-fio's clone.go
// (copyRegular/CloneFile/updateMeta pattern), adapted from "clone an
// arbitrary tree" semantics to synctool's {create, overwrite,
// fix-metadata, symlink-retarget, delete, erase-backup} action set
// named in spec.md §4.3, which in turn mirrors
// original_source/src/synctool_client.py's overlay_callback/
// delete_callback/erase_saved_callback.
package syncobj

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Linuxtester/synctool/internal/fsx"
	"github.com/Linuxtester/synctool/internal/statcache"
)

// Kind enumerates the possible actions a sync object can apply.
type Kind int

const (
	REGULAR Kind = iota
	DIR
	SYMLINK
	DELETE
	ERASE_SAVED
)

func (k Kind) String() string {
	switch k {
	case REGULAR:
		return "REGULAR"
	case DIR:
		return "DIR"
	case SYMLINK:
		return "SYMLINK"
	case DELETE:
		return "DELETE"
	case ERASE_SAVED:
		return "ERASE_SAVED"
	default:
		return "UNKNOWN"
	}
}

// Options configures how Apply behaves across an entire pass.
type Options struct {
	DryRun       bool
	Fix          bool // inverse of DryRun, kept for CLI --fix symmetry
	UnixCommands bool // print-equivalent-shell-command mode
	Terse        bool // print a terse colorized action token
	SymlinkMode  os.FileMode
	Meta         fsx.MetaOptions
}

// Object is a single sync object: a candidate source and its
// destination, carrying both sides' stat snapshots.
type Object struct {
	Src, Dst string
	Kind     Kind

	SrcInfo *fsx.Info // nil for DELETE/ERASE_SAVED
	DstInfo *fsx.Info // nil if destination doesn't exist yet

	cache *statcache.Cache
}

// New builds a sync object, looking up the destination through the
// shared stat cache so it is lstat'd at most once per pass; the source
// is lstat'd directly.
func New(cache *statcache.Cache, src, dst string, kind Kind) (*Object, error) {
	o := &Object{Src: src, Dst: dst, Kind: kind, cache: cache}

	if kind != DELETE && kind != ERASE_SAVED && src != "" {
		fi, err := fsx.Lstat(src)
		if err != nil {
			return nil, fmt.Errorf("syncobj: stat src %s: %w", src, err)
		}
		o.SrcInfo = fi
	}

	if fi, err := cache.Lstat(dst); err == nil {
		o.DstInfo = fi
	}

	return o, nil
}

// Compare determines whether the destination already matches the
// source, per spec.md §4.3: byte-identical content for regular files,
// identical target string for symlinks, metadata-only for
// directories.
func (o *Object) Compare() (changed bool, err error) {
	switch o.Kind {
	case DELETE:
		return o.DstInfo != nil, nil
	case ERASE_SAVED:
		_, err := os.Lstat(o.Dst + ".saved")
		return err == nil, nil
	}

	if o.DstInfo == nil {
		return true, nil
	}

	switch o.Kind {
	case DIR:
		if !o.DstInfo.IsDir() {
			return true, nil
		}
		return o.metaDiffers(), nil
	case SYMLINK:
		if !o.DstInfo.IsSymlink() {
			return true, nil
		}
		target, err := os.Readlink(o.Src)
		if err != nil {
			return false, err
		}
		curTarget, err := os.Readlink(o.Dst)
		if err != nil {
			return false, err
		}
		if target != curTarget {
			return true, nil
		}
		return o.metaDiffers(), nil
	case REGULAR:
		if !o.DstInfo.IsRegular() {
			return true, nil
		}
		eq, err := contentEqual(o.Src, o.Dst)
		if err != nil {
			return false, err
		}
		if !eq {
			return true, nil
		}
		return o.metaDiffers(), nil
	}
	return false, nil
}

func (o *Object) metaDiffers() bool {
	if o.SrcInfo == nil || o.DstInfo == nil {
		return false
	}
	if o.Kind != SYMLINK && o.SrcInfo.Mode().Perm() != o.DstInfo.Mode().Perm() {
		return true
	}
	if o.SrcInfo.Uid != o.DstInfo.Uid || o.SrcInfo.Gid != o.DstInfo.Gid {
		return true
	}
	return false
}

func contentEqual(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	const chunk = 64 * 1024
	ba := make([]byte, chunk)
	bb := make([]byte, chunk)
	for {
		na, erra := io.ReadFull(fa, ba)
		nb, errb := io.ReadFull(fb, bb)
		if na != nb || !bytes.Equal(ba[:na], bb[:nb]) {
			return false, nil
		}
		if erra == io.EOF && errb == io.EOF {
			return true, nil
		}
		if erra == io.ErrUnexpectedEOF || errb == io.ErrUnexpectedEOF {
			return na == nb, nil
		}
		if erra != nil {
			return false, erra
		}
		if errb != nil {
			return false, errb
		}
	}
}

// Action describes what Apply did (or, in dry-run, would do) for
// downstream printing by cmd/synctool.
type Action struct {
	Kind     Kind
	Src, Dst string
	// Changed is false when Apply found nothing to do.
	Changed bool
	// Summary is a short terse-mode token, e.g. "new", "upd", "del".
	Summary string
}

// Apply performs the transition described by the object, honoring
// Options.DryRun (print-only, no mutation). It is idempotent: calling
// Apply twice in a row, with no external change in between, is a
// no-op on the second call.
func (o *Object) Apply(opt Options) (Action, error) {
	changed, err := o.Compare()
	if err != nil {
		return Action{}, err
	}
	if !changed {
		return Action{Kind: o.Kind, Src: o.Src, Dst: o.Dst, Changed: false}, nil
	}

	act := Action{Kind: o.Kind, Src: o.Src, Dst: o.Dst, Changed: true}
	if opt.DryRun {
		act.Summary = dryRunSummary(o.Kind)
		return act, nil
	}

	switch o.Kind {
	case DELETE:
		act.Summary = "del"
		return act, o.hardDelete()
	case ERASE_SAVED:
		act.Summary = "erase"
		return act, o.EraseSaved()
	case DIR:
		act.Summary = "dir"
		return act, o.applyDir(opt)
	case SYMLINK:
		act.Summary = "link"
		return act, o.applySymlink(opt)
	case REGULAR:
		if o.DstInfo == nil {
			act.Summary = "new"
		} else {
			act.Summary = "upd"
		}
		return act, o.applyRegular(opt)
	}
	return act, fmt.Errorf("syncobj: unknown kind %v", o.Kind)
}

func dryRunSummary(k Kind) string {
	switch k {
	case DELETE:
		return "would del"
	case ERASE_SAVED:
		return "would erase"
	case DIR:
		return "would mkdir"
	case SYMLINK:
		return "would relink"
	default:
		return "would update"
	}
}

// applyRegular implements the write protocol from spec.md §4.3: save
// the existing destination, copy-then-rename the new content in, then
// reconcile metadata. If any step fails the .saved backup remains as
// the recovery artifact. When the content already matches and only
// metadata differs, it applies the metadata alone, with no rename.
func (o *Object) applyRegular(opt Options) error {
	if o.DstInfo != nil && o.DstInfo.IsRegular() {
		if eq, err := contentEqual(o.Src, o.Dst); err == nil && eq {
			err := fsx.UpdateMetadata(o.Dst, o.SrcInfo, opt.Meta)
			o.cache.Invalidate(o.Dst)
			return err
		}
	}
	if o.DstInfo != nil {
		if err := saveExisting(o.Dst); err != nil {
			return err
		}
	}
	if err := fsx.CloneFile(o.Dst, o.Src, opt.Meta); err != nil {
		return err
	}
	o.cache.Invalidate(o.Dst)
	return nil
}

func (o *Object) applyDir(opt Options) error {
	mode := os.FileMode(0755)
	if o.SrcInfo != nil {
		mode = o.SrcInfo.Mode().Perm()
	}
	if err := mkdirAllUmask(o.Dst, mode); err != nil {
		return err
	}
	o.cache.Invalidate(o.Dst)
	if o.SrcInfo != nil {
		return fsx.UpdateMetadata(o.Dst, o.SrcInfo, opt.Meta)
	}
	return nil
}

// applySymlink retargets the link verbatim from the source's target
// string; synctool never follows the link (spec.md §4.3 "Symlinks").
// opt.SymlinkMode is recorded on the config side only, never applied
// here: there's no portable lchmod on Linux, and the original
// (synctool_client.py) only ever prints SYMLINK_MODE too.
func (o *Object) applySymlink(opt Options) error {
	target, err := os.Readlink(o.Src)
	if err != nil {
		return err
	}
	if err := fsx.Retarget(o.Dst, target); err != nil {
		return err
	}
	o.cache.Invalidate(o.Dst)
	return nil
}

// saveExisting renames an existing destination to <dest>.saved,
// overwriting any prior backup, per spec.md §4.3 step 1.
func saveExisting(dst string) error {
	saved := dst + ".saved"
	os.Remove(saved)
	return os.Rename(dst, saved)
}

// EraseSaved removes the <dest>.saved backup file if present.
func (o *Object) EraseSaved() error {
	err := os.Remove(o.Dst + ".saved")
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// HardDeleteFile unconditionally removes the destination, used by
// delete-tree mode and cache-cleaning helpers.
func (o *Object) HardDeleteFile() error {
	return o.hardDelete()
}

func (o *Object) hardDelete() error {
	err := os.Remove(o.Dst)
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	o.cache.Invalidate(o.Dst)
	return err
}

// adminUmask is the umask InitUmask captured at startup, restored
// briefly around mkdir -p by mkdirAllUmask. Zero (its default before
// InitUmask runs) reproduces the old unmasked behavior, which is what
// tests that build Objects directly without a startup pass still get.
var adminUmask = 0

// InitUmask captures the process's current (admin-set) umask and
// switches to restrictive for the rest of the run, per spec.md §5's
// three-state choreography: admin's umask captured once at startup,
// a restrictive umask for general operation, admin's umask restored
// briefly around each mkdir -p. Call once, before any reconciliation
// pass.
func InitUmask(restrictive os.FileMode) {
	adminUmask = umaskSet(int(restrictive))
}

// mkdirAllUmask creates dst and its parents at the given mode,
// briefly switching back to the admin's original umask (captured by
// InitUmask) around mkdir so parent directories end up masked the way
// the admin intends rather than by the tool's restrictive working
// umask, then restores whatever umask was active beforehand.
func mkdirAllUmask(dst string, mode os.FileMode) error {
	old := umaskSet(adminUmask)
	defer umaskSet(old)
	return os.MkdirAll(dst, mode)
}
