// synctool-master is the fleet dispatch binary: it computes the
// target nodeset from the configured fleet plus CLI include/exclude
// selectors, then rsyncs the master tree to each node and invokes
// synctool over ssh there, fanning the work out across a bounded
// worker pool.
//
// CLI flag layout grounded on opencoff-go-fio's testsuite/main.go
// (github.com/opencoff/pflag), extended with the master-only flags
// from spec.md §6; every other flag is forwarded verbatim to the
// remote client invocation.
package main

import (
	"context"
	"fmt"
	"log/syslog"
	"os"
	"os/signal"
	"path"
	"syscall"

	flag "github.com/opencoff/pflag"

	"github.com/Linuxtester/synctool/internal/config"
	"github.com/Linuxtester/synctool/internal/dispatch"
	"github.com/Linuxtester/synctool/internal/group"
	"github.com/Linuxtester/synctool/internal/logx"
)

var z = path.Base(os.Args[0])

type cliOpts struct {
	confFile string

	nodes         []string
	groups        []string
	excludeNodes  []string
	excludeGroups []string
	skipRsync     bool
	tasks         string
	filterIgnored bool

	// passthrough flags, forwarded verbatim to the remote client.
	fix        bool
	noPost     bool
	fullPath   bool
	terse      bool
	color      bool
	noColor    bool
	unixMode   bool
	verbose    bool
	quiet      bool
	eraseSaved bool

	help bool
}

func main() {
	var o cliOpts

	fs := flag.NewFlagSet(z, flag.ExitOnError)
	fs.StringVarP(&o.confFile, "conf", "c", "/etc/synctool/synctool.conf", "Use `F` as the config file")
	fs.StringSliceVarP(&o.nodes, "node", "", nil, "Restrict dispatch to these nodes")
	fs.StringSliceVarP(&o.groups, "group", "", nil, "Restrict dispatch to these groups")
	fs.StringSliceVarP(&o.excludeNodes, "exclude", "", nil, "Exclude these nodes")
	fs.StringSliceVarP(&o.excludeGroups, "exclude-group", "", nil, "Exclude these groups")
	fs.BoolVarP(&o.skipRsync, "skip-rsync", "", false, "Skip the rsync step, ssh only")
	fs.StringVarP(&o.tasks, "tasks", "", "", "Run the named tasks/ script on every dispatched node")
	fs.BoolVarP(&o.filterIgnored, "filter-ignored", "", false, "Suppress the (ignored) notice for nodes in an ignore_group")

	fs.BoolVarP(&o.fix, "fix", "", false, "Actually apply changes [dry-run otherwise]")
	fs.BoolVarP(&o.noPost, "no-post", "", false, "Do not run any .post scripts")
	fs.BoolVarP(&o.fullPath, "fullpath", "", false, "Print full paths, not terse paths")
	fs.BoolVarP(&o.terse, "terse", "", false, "Print terse paths")
	fs.BoolVarP(&o.color, "color", "", false, "Force colorized output on")
	fs.BoolVarP(&o.noColor, "no-color", "", false, "Force colorized output off")
	fs.BoolVarP(&o.unixMode, "unix", "", false, "Also print the equivalent unix shell command")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "Quiet output")
	fs.BoolVarP(&o.eraseSaved, "erase-saved", "", false, "Remove .saved backup files")
	fs.BoolVarP(&o.help, "help", "h", false, "Show help and exit")

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}
	if o.help {
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err := run(o); err != nil {
		die("%s", err)
	}
}

func run(o cliOpts) error {
	cfg, err := config.Parse(o.confFile)
	if err != nil {
		return err
	}
	log := logx.Stdlog(z)

	fleet := buildFleet(cfg)
	ignore := dispatch.NewIgnoreSet(cfg.IgnoreGroups)
	sel := dispatch.Selectors{
		Nodes:          o.nodes,
		Groups:         o.groups,
		ExcludeNodes:   o.excludeNodes,
		ExcludeGroups:  o.excludeGroups,
		DefaultNodeset: cfg.DefaultNodeset,
	}
	nodeset, ignored := dispatch.BuildNodeset(fleet, sel, ignore)
	for _, line := range ignoredNotices(ignored, o.filterIgnored) {
		log.Info(line)
	}
	if len(nodeset) == 0 {
		fmt.Fprintln(os.Stderr, "synctool-master: empty nodeset, nothing to do")
		os.Exit(1)
	}

	dcfg := dispatch.Config{
		Masterdir:   cfg.Masterdir,
		RsyncCmd:    cfg.RsyncCmd,
		SSHCmd:      cfg.SSHCmd,
		SynctoolCmd: cfg.SynctoolCmd,
		NumProc:     cfg.NumProc,
		SleepTime:   cfg.SleepTime,
		SkipRsync:   o.skipRsync,
		ExtraArgs:   passthroughArgs(o),
	}
	if w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_USER, z); err == nil {
		dcfg.Syslog = w
	}
	d := dispatch.NewDispatcher(dcfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, runErr := d.Run(ctx, nodeset, os.Stdout)

	var failed int
	for _, j := range jobs {
		if j.RsyncErr != nil {
			fmt.Fprintf(os.Stderr, "%s: rsync failed: %s\n", j.Node, j.RsyncErr)
			failed++
			continue
		}
		if j.ClientErr != nil {
			fmt.Fprintf(os.Stderr, "%s: synctool failed: %s\n", j.Node, j.ClientErr)
			failed++
		}
	}
	if runErr != nil || failed > 0 {
		os.Exit(1)
	}
	return nil
}

// ignoredNotices renders one "(ignored)" line per node skipped for
// being in an ignore_group (spec.md §6), unless --filter-ignored
// suppresses them.
func ignoredNotices(ignored []string, filterIgnored bool) []string {
	if filterIgnored {
		return nil
	}
	lines := make([]string, len(ignored))
	for i, n := range ignored {
		lines[i] = fmt.Sprintf("%s (ignored)", n)
	}
	return lines
}

// buildFleet converts the parsed config's node definitions into a
// dispatch.Fleet, giving every node its implicit nodename/all groups
// the same way the client side does (internal/group.NewList).
func buildFleet(cfg *config.Config) dispatch.Fleet {
	fleet := make(dispatch.Fleet, len(cfg.Nodes))
	for name, n := range cfg.Nodes {
		addr := n.Address
		if addr == "" {
			addr = n.Host
		}
		if addr == "" {
			addr = name
		}
		fleet[name] = dispatch.Node{
			Name:    name,
			Groups:  group.NewList(name, n.Groups),
			Address: addr,
		}
	}
	return fleet
}

// passthroughArgs rebuilds the client-facing flag set from the flags
// spec.md §6 says the master forwards verbatim.
func passthroughArgs(o cliOpts) []string {
	var args []string
	add := func(on bool, flag string) {
		if on {
			args = append(args, flag)
		}
	}
	add(o.fix, "--fix")
	add(o.noPost, "--no-post")
	add(o.fullPath, "--fullpath")
	add(o.terse, "--terse")
	add(o.color, "--color")
	add(o.noColor, "--no-color")
	add(o.unixMode, "--unix")
	add(o.verbose, "--verbose")
	add(o.quiet, "--quiet")
	add(o.eraseSaved, "--erase-saved")
	if o.tasks != "" {
		args = append(args, "--tasks", o.tasks)
	}
	args = append(args, "--masterlog")
	return args
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", z, fmt.Sprintf(format, args...))
	os.Exit(1)
}
