package pkgmgr

import "context"

// Noop is the default backend when no package_manager is configured:
// every action is a deliberate no-op rather than an error, since
// package management is explicitly out of this repository's core
// focus (spec.md §1).
type Noop struct{}

func (Noop) List(ctx context.Context, pkgs []string) ([]byte, error) { return nil, nil }
func (Noop) Install(ctx context.Context, pkgs []string) error        { return nil }
func (Noop) Remove(ctx context.Context, pkgs []string) error         { return nil }
func (Noop) Upgrade(ctx context.Context, dryRun bool) ([]byte, error) { return nil, nil }
func (Noop) Clean(ctx context.Context) error                         { return nil }
