// Package pkgmgr models synctool's package-manager adaptors as a
// capability set, one implementation per backend, per spec.md §9's
// explicit design note. Out of spec.md's core focus (§1 lists package-
// manager adaptors among the "external collaborators... specified
// only at their interfaces"), so only the interface plus two small
// backends are implemented here, grounded on
// original_source/src/synctool_pkg_zypper.py's SyncPkgZypper (one
// concrete backend, reimplemented idiomatically rather than
// translated).
package pkgmgr

import "context"

// Manager is the capability set every package-manager backend
// implements: list installed packages, install, remove, upgrade the
// whole system, and clean any local package cache.
type Manager interface {
	List(ctx context.Context, pkgs []string) ([]byte, error)
	Install(ctx context.Context, pkgs []string) error
	Remove(ctx context.Context, pkgs []string) error
	Upgrade(ctx context.Context, dryRun bool) ([]byte, error)
	Clean(ctx context.Context) error
}

// Registry resolves a configured package_manager name to a Manager,
// mirroring synctool_config.py's package_manager config key.
func Registry(name, pkgCmd string) (Manager, error) {
	switch name {
	case "zypper":
		return &Zypper{Cmd: pkgCmd}, nil
	case "", "none":
		return &Noop{}, nil
	default:
		return nil, &UnknownBackendError{Name: name}
	}
}

// UnknownBackendError is returned by Registry for an unrecognized
// package_manager config value.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return "pkgmgr: unknown package manager backend '" + e.Name + "'"
}
