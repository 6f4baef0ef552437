package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/opencoff/shlex"

	"github.com/Linuxtester/synctool/internal/logx"
	"github.com/Linuxtester/synctool/internal/pathutil"
	"github.com/Linuxtester/synctool/internal/reconcile"
	"github.com/Linuxtester/synctool/internal/syncobj"
)

// emit writes one line to stdout, wrapped in the %synctool-log%
// marker when run under the master's ssh dispatch (spec.md §6).
func (e *clientEnv) emit(line string) {
	if e.opts.masterlog {
		fmt.Println(logx.MasterLog(line))
		return
	}
	fmt.Println(line)
}

// printReport renders one pass's actions and .post output to stdout,
// terse-colorized per spec.md §6's terse_colors config key.
func (e *clientEnv) printReport(report *reconcile.Report) {
	for _, act := range report.Actions {
		e.printAction(act)
	}
	for _, p := range report.PostOutput {
		if p.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: post script %s failed: %s\n", p.Dir, p.Command, p.Err)
			continue
		}
		e.emit(fmt.Sprintf("%s: ran %s", e.displayPath(p.Dir), p.Command))
	}
	for _, err := range report.Failed {
		fmt.Fprintln(os.Stderr, err)
		e.log.Err("%s", err)
	}
}

func (e *clientEnv) printAction(act syncobj.Action) {
	if !act.Changed {
		return
	}
	e.log.Debug("%s %s -> %s", act.Kind, act.Src, act.Dst)
	dst := e.displayPath(act.Dst)
	line := fmt.Sprintf("%s %s", act.Summary, dst)
	e.emit(e.color.Paint(act.Summary, line))
}

func (e *clientEnv) displayPath(p string) string {
	if e.opts.fullPath {
		return p
	}
	return pathutil.Terse(p, e.cfg.Masterdir, 55)
}

// runExternal invokes the configured diff_cmd against src and dst,
// mirroring synctool_client.py's run_diff_cmd.
func runExternal(cmdline, src, dst string) error {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("empty diff_cmd")
	}
	args = append(args, src, dst)
	cmd := exec.CommandContext(context.Background(), args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
