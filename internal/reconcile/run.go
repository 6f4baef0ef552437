package reconcile

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Linuxtester/synctool/internal/group"
	"github.com/Linuxtester/synctool/internal/overlay"
	"github.com/Linuxtester/synctool/internal/statcache"
	"github.com/Linuxtester/synctool/internal/syncobj"
)

// Report summarizes one pass: every action taken (or, in dry-run,
// that would have been taken) plus accumulated failures, so the
// caller can set a nonzero exit status per spec.md §4.3/§7 without
// reconcile itself touching os.Exit.
type Report struct {
	Actions    []syncobj.Action
	Failed     []error
	PostOutput []PostResult
}

// PostResult records the outcome of one .post script invocation.
type PostResult struct {
	Dir     string
	Command string
	Err     error
}

// Config bundles everything a pass needs beyond the overlay root.
type Config struct {
	OverlayRoot string
	DestRoot    string
	Groups      group.List
	Mode        overlay.Mode
	NoPost      bool
	Opt         syncobj.Options
}

// Run performs one full reconciliation pass (spec.md §2 data flow,
// §4.2-§4.4): walk the overlay tree, apply the sync object of every
// chosen entry (in map iteration order, which is not defined), queue
// changed directories, then flush .post scripts
// deepest-first. Mode selects between the overlay tree (create/
// update) and the delete tree (remove anything the delete tree
// names), per spec.md §3's two-subtree design.
func Run(cfg Config) (*Report, error) {
	res, err := overlay.Walk(overlay.Options{
		Root:     cfg.OverlayRoot,
		DestRoot: cfg.DestRoot,
		Groups:   cfg.Groups,
		Mode:     cfg.Mode,
	})
	if err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}

	cache := statcache.New()
	report := &Report{}
	queue := NewDirQueue()

	for dst, e := range res.Chosen {
		kind := syncobj.REGULAR
		switch {
		case cfg.Mode == overlay.DeleteMode:
			kind = syncobj.DELETE
		case e.IsDir:
			kind = syncobj.DIR
		case e.Info.IsSymlink():
			kind = syncobj.SYMLINK
		}

		obj, err := syncobj.New(cache, e.SrcPath, dst, kind)
		if err != nil {
			report.Failed = append(report.Failed, err)
			continue
		}
		act, err := obj.Apply(cfg.Opt)
		if err != nil {
			report.Failed = append(report.Failed, fmt.Errorf("%s: %w", dst, err))
			continue
		}
		report.Actions = append(report.Actions, act)
		if act.Changed {
			queue.Record(filepath.Dir(e.SrcPath), filepath.Dir(dst))
			if e.IsDir {
				queue.Record(e.SrcPath, dst)
			}
		}
	}

	if !cfg.NoPost {
		flushPosts(res, queue, cfg.Opt.DryRun, report)
	}

	return report, nil
}

// flushPosts executes queued .post scripts deepest-first, per
// spec.md §4.4.
func flushPosts(res *overlay.Result, queue *DirQueue, dryRun bool, report *Report) {
	for _, pair := range queue.Sorted() {
		post, ok := res.PostFor(pair.DstDir)
		if !ok {
			continue
		}
		if dryRun {
			report.PostOutput = append(report.PostOutput, PostResult{Dir: pair.DstDir, Command: post.SrcPath})
			continue
		}
		err := runPostScript(post.SrcPath, pair.DstDir)
		report.PostOutput = append(report.PostOutput, PostResult{Dir: pair.DstDir, Command: post.SrcPath, Err: err})
	}
}

// runPostScript invokes the post-script with its working directory
// set to dstDir, matching synctool_client.py's run_command_in_dir.
func runPostScript(script, dstDir string) error {
	cmd := exec.Command(script)
	cmd.Dir = dstDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
