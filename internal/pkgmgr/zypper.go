package pkgmgr

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
)

// Zypper is the zypper/rpm-based backend, grounded on
// original_source/src/synctool_pkg_zypper.py's SyncPkgZypper.
type Zypper struct {
	// Cmd overrides the zypper binary; empty means "zypper" from PATH.
	Cmd string

	// CacheDir is where zypper stashes downloaded RPMs; Clean deletes
	// its contents directly since zypper itself has no "clean" action
	// (mirrors the Python original's comment to that effect).
	CacheDir string
}

func (z *Zypper) zypper() string {
	if z.Cmd != "" {
		return z.Cmd
	}
	return "zypper"
}

// List shells out to "rpm -qa [pkgs...]"; zypper itself has no
// list-installed action, matching the original's same workaround.
func (z *Zypper) List(ctx context.Context, pkgs []string) ([]byte, error) {
	args := append([]string{"-qa"}, pkgs...)
	return exec.CommandContext(ctx, "rpm", args...).CombinedOutput()
}

func (z *Zypper) Install(ctx context.Context, pkgs []string) error {
	args := append([]string{"-y", "install"}, pkgs...)
	cmd := exec.CommandContext(ctx, z.zypper(), args...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

func (z *Zypper) Remove(ctx context.Context, pkgs []string) error {
	args := append([]string{"-y", "remove"}, pkgs...)
	cmd := exec.CommandContext(ctx, z.zypper(), args...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return cmd.Run()
}

func (z *Zypper) Upgrade(ctx context.Context, dryRun bool) ([]byte, error) {
	if dryRun {
		return exec.CommandContext(ctx, z.zypper(), "list-updates").CombinedOutput()
	}
	cmd := exec.CommandContext(ctx, z.zypper(), "-y", "update")
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	return nil, cmd.Run()
}

// Clean deletes cached RPM files directly, since zypper has no
// "clean" action of its own.
func (z *Zypper) Clean(ctx context.Context) error {
	dir := z.CacheDir
	if dir == "" {
		dir = "/var/lib/zypper/RPMS"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
