// synctool is the client binary: it reconciles the local filesystem
// against the group-resolved subset of the master's overlay tree.
//
// CLI flag layout grounded on opencoff-go-fio's testsuite/main.go
// (github.com/opencoff/pflag, FlagSet.BoolVarP/StringVarP), with the
// flag set itself matching spec.md §6 exactly.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path"
	"syscall"

	logger "github.com/opencoff/go-logger"
	flag "github.com/opencoff/pflag"

	"github.com/Linuxtester/synctool/internal/config"
	"github.com/Linuxtester/synctool/internal/fsx"
	"github.com/Linuxtester/synctool/internal/group"
	"github.com/Linuxtester/synctool/internal/logx"
	"github.com/Linuxtester/synctool/internal/overlay"
	"github.com/Linuxtester/synctool/internal/pathutil"
	"github.com/Linuxtester/synctool/internal/reconcile"
	"github.com/Linuxtester/synctool/internal/statcache"
	"github.com/Linuxtester/synctool/internal/syncobj"
	"github.com/Linuxtester/synctool/internal/term"
)

var z = path.Base(os.Args[0])

type cliOpts struct {
	confFile string

	diff       string
	single     string
	ref        string
	eraseSaved bool
	fix        bool
	noPost     bool
	fullPath   bool
	terse      bool
	color      bool
	noColor    bool
	unixMode   bool
	verbose    bool
	quiet      bool
	masterlog  bool
	nodename   string
	tasks      string

	help bool
}

func main() {
	var o cliOpts

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.StringVarP(&o.confFile, "conf", "c", "/etc/synctool/synctool.conf", "Use `F` as the config file")
	fs.StringVarP(&o.diff, "diff", "", "", "Show diff of destination `F` against the overlay")
	fs.StringVarP(&o.single, "single", "", "", "Reconcile a single destination `F`")
	fs.StringVarP(&o.ref, "ref", "", "", "Print the overlay source chosen for destination `F`")
	fs.BoolVarP(&o.eraseSaved, "erase-saved", "", false, "Remove .saved backup files")
	fs.BoolVarP(&o.fix, "fix", "", false, "Actually apply changes [dry-run otherwise]")
	fs.BoolVarP(&o.noPost, "no-post", "", false, "Do not run any .post scripts")
	fs.BoolVarP(&o.fullPath, "fullpath", "", false, "Print full paths, not terse paths")
	fs.BoolVarP(&o.terse, "terse", "", false, "Print terse paths")
	fs.BoolVarP(&o.color, "color", "", false, "Force colorized output on")
	fs.BoolVarP(&o.noColor, "no-color", "", false, "Force colorized output off")
	fs.BoolVarP(&o.unixMode, "unix", "", false, "Also print the equivalent unix shell command")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Quiet output")
	fs.BoolVarP(&o.masterlog, "masterlog", "", false, "Emit %synctool-log% markers for the master")
	fs.StringVarP(&o.nodename, "nodename", "n", "", "Override the detected nodename")
	fs.StringVarP(&o.tasks, "tasks", "", "", "Run the named script from the tasks tree instead of reconciling")
	fs.BoolVarP(&o.help, "help", "h", false, "Show help and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}
	if o.help {
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := validateActions(o); err != nil {
		die("%s", err)
	}

	if err := run(o); err != nil {
		die("%s", err)
	}
}

// validateActions enforces spec.md §6's "mutually exclusive actions
// fail fast".
func validateActions(o cliOpts) error {
	n := 0
	for _, s := range []string{o.diff, o.single, o.ref} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("--diff, --single and --ref are mutually exclusive")
	}
	if o.color && o.noColor {
		return fmt.Errorf("--color and --no-color are mutually exclusive")
	}
	if o.fullPath && o.terse {
		return fmt.Errorf("--fullpath and --terse are mutually exclusive")
	}
	return nil
}

// restrictiveUmask is the working umask the client switches to at
// startup, per spec.md §5; mkdirAllUmask restores the admin's original
// umask briefly around each mkdir -p.
const restrictiveUmask = 0077

func run(o cliOpts) error {
	syncobj.InitUmask(restrictiveUmask)

	cfg, err := config.Parse(o.confFile)
	if err != nil {
		return err
	}

	nodename := o.nodename
	if nodename == "" {
		h, err := os.Hostname()
		if err != nil {
			return err
		}
		nodename = h
	}
	groups, err := cfg.GroupList(nodename)
	if err != nil {
		return err
	}

	log, err := logx.New(cfg.Logfile, nodename, o.verbose, o.quiet)
	if err != nil {
		return err
	}

	colorizer := term.NewColorizer(os.Stdout, cfg.Colorize, o.color, o.noColor)
	colorizer.Bright = cfg.ColorizeBright
	colorizer.FullLine = cfg.ColorizeFullLine
	if cfg.TerseColors != nil {
		colorizer.TerseColor = cfg.TerseColors
	}

	// Ctrl-C (or SIGTERM) exits silently with status 1, per spec.md §7.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		os.Exit(1)
	}()

	env := &clientEnv{cfg: cfg, groups: groups, log: log, color: colorizer, opts: o}

	switch {
	case o.tasks != "":
		return env.runTask()
	case o.single != "":
		return env.runSingle()
	case o.diff != "":
		return env.runDiff()
	case o.ref != "":
		return env.runRef()
	case o.eraseSaved:
		return env.runEraseSaved()
	default:
		return env.runFullPass()
	}
}

// runTask executes a named script from masterdir/tasks/ directly, with
// no group resolution: tasks are one-shot operator scripts, not
// overlay content (spec.md §6 "optionally tasks/ (scripts)").
func (e *clientEnv) runTask() error {
	script := e.cfg.Masterdir + "/tasks/" + e.opts.tasks
	if !e.opts.fix {
		e.emit(fmt.Sprintf("(dry-run) would run task %s", e.opts.tasks))
		return nil
	}
	cmd := exec.Command(script)
	cmd.Dir = e.cfg.Masterdir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		e.log.Err("task %s failed: %s", e.opts.tasks, err)
		return err
	}
	e.emit(fmt.Sprintf("ran task %s", e.opts.tasks))
	return nil
}

// clientEnv bundles the per-invocation state every action needs.
type clientEnv struct {
	cfg    *config.Config
	groups group.List
	log    logger.Logger
	color  *term.Colorizer
	opts   cliOpts
}

func (e *clientEnv) overlayRoot() string {
	return e.cfg.Masterdir + "/overlay"
}

func (e *clientEnv) deleteRoot() string {
	return e.cfg.Masterdir + "/delete"
}

func (e *clientEnv) walkOverlay() (*overlay.Result, error) {
	return overlay.Walk(overlay.Options{
		Root:     e.overlayRoot(),
		DestRoot: "/",
		Groups:   e.groups,
		Mode:     overlay.OverlayMode,
	})
}

func (e *clientEnv) syncobjOpts() syncobj.Options {
	return syncobj.Options{
		DryRun:       !e.opts.fix,
		UnixCommands: e.opts.unixMode,
		Terse:        !e.opts.fullPath,
		SymlinkMode:  e.cfg.SymlinkMode,
		Meta:         fsx.DefaultMetaOptions,
	}
}

func (e *clientEnv) runFullPass() error {
	rcfg := reconcile.Config{
		OverlayRoot: e.overlayRoot(),
		DestRoot:    "/",
		Groups:      e.groups,
		NoPost:      e.opts.noPost,
		Opt:         e.syncobjOpts(),
	}
	report, err := reconcile.Run(rcfg)
	if err != nil {
		if amb, ok := err.(*overlay.AmbiguityError); ok {
			fmt.Fprintln(os.Stderr, amb.Error())
			os.Exit(1)
		}
		return err
	}
	e.printReport(report)

	dcfg := rcfg
	dcfg.OverlayRoot = e.deleteRoot()
	dcfg.Mode = overlay.DeleteMode
	dreport, err := reconcile.Run(dcfg)
	if err == nil {
		e.printReport(dreport)
		report.Failed = append(report.Failed, dreport.Failed...)
	}

	if len(report.Failed) > 0 {
		os.Exit(1)
	}
	return nil
}

func (e *clientEnv) runSingle() error {
	dst, err := pathutil.ResolveInput(e.opts.single)
	if err != nil {
		return err
	}
	res, err := e.walkOverlay()
	if err != nil {
		return err
	}
	found, status, multi := overlay.FindTerse(res, dst)
	switch status {
	case overlay.NotFound:
		fmt.Printf("%s: not in the overlay tree\n", dst)
		return nil
	case overlay.FoundMultiple:
		fmt.Println("ambiguous terse pattern matches:")
		for _, m := range multi {
			fmt.Println("  " + m.DstPath)
		}
		os.Exit(1)
	}

	cache := statcache.New()
	kind := syncobj.REGULAR
	switch {
	case found.IsDir:
		kind = syncobj.DIR
	case found.Info != nil && found.Info.IsSymlink():
		kind = syncobj.SYMLINK
	}
	obj, err := syncobj.New(cache, found.SrcPath, found.DstPath, kind)
	if err != nil {
		return err
	}
	act, err := obj.Apply(e.syncobjOpts())
	if err != nil {
		return err
	}
	e.printAction(act)
	return nil
}

func (e *clientEnv) runDiff() error {
	dst, err := pathutil.ResolveInput(e.opts.diff)
	if err != nil {
		return err
	}
	res, err := e.walkOverlay()
	if err != nil {
		return err
	}
	found, status, _ := overlay.FindTerse(res, dst)
	if status != overlay.Found {
		fmt.Printf("%s: not in the overlay tree\n", dst)
		return nil
	}
	if e.cfg.DiffCmd == "" {
		return fmt.Errorf("diff_cmd is not configured in %s", e.opts.confFile)
	}
	return runExternal(e.cfg.DiffCmd, found.SrcPath, found.DstPath)
}

func (e *clientEnv) runRef() error {
	dst, err := pathutil.ResolveInput(e.opts.ref)
	if err != nil {
		return err
	}
	res, err := e.walkOverlay()
	if err != nil {
		return err
	}
	found, status, _ := overlay.FindTerse(res, dst)
	if status != overlay.Found {
		fmt.Printf("%s: not in the overlay tree\n", dst)
		return nil
	}
	fmt.Println(found.SrcPath)
	return nil
}

func (e *clientEnv) runEraseSaved() error {
	res, err := e.walkOverlay()
	if err != nil {
		return err
	}
	if err := res.Validate(); err != nil {
		return err
	}
	cache := statcache.New()
	var failed int
	for dst := range res.Chosen {
		obj, err := syncobj.New(cache, "", dst, syncobj.ERASE_SAVED)
		if err != nil {
			failed++
			continue
		}
		if _, err := obj.Apply(syncobj.Options{DryRun: !e.opts.fix}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
	return nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", z, fmt.Sprintf(format, args...))
	os.Exit(1)
}
