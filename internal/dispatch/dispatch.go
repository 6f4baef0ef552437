package dispatch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/syslog"
	"os/exec"
	"strings"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/Linuxtester/synctool/internal/logx"
	"github.com/Linuxtester/synctool/internal/workpool"
)

// LogMarker re-exports logx.Marker for callers that only deal with the
// master-side consumption half of the grammar (spec.md §6 "Master->
// client marker"). REDESIGN FLAG (c): the grammar is MARKER SP MSG,
// where MSG=="--" is a reserved heartbeat the master swallows without
// forwarding, instead of the original's overloaded use of the same
// prefix for both real log lines and liveness pings.
const LogMarker = logx.Marker

// Job is the outcome of dispatching to a single node.
type Job struct {
	Node       string
	RsyncErr   error
	ClientErr  error
	RsyncCode  int
	ClientCode int
}

// Config drives one dispatcher run.
type Config struct {
	Masterdir  string
	RsyncCmd   string
	SSHCmd     string
	SynctoolCmd string
	NumProc    int
	SleepTime  time.Duration
	SkipRsync  bool
	// ExtraArgs is passed through verbatim to each client invocation,
	// per spec.md §6's "all other flags are passed through verbatim".
	ExtraArgs []string
	// Syslog, if non-nil, receives forwarded %synctool-log% lines.
	Syslog *syslog.Writer
}

// Dispatcher fans rsync+ssh work out across a nodeset using the
// bounded worker pool (C7), grounded on synctool_master.py's per-node
// subprocess sequence and on opencoff-go-fio's testsuite/main.go
// parallelize() for the concurrency shape (work channel + worker
// goroutines + error harvester), here generalized via internal/workpool.
type Dispatcher struct {
	cfg     Config
	results *xsync.MapOf[string, Job]
}

// NewDispatcher builds a Dispatcher for cfg.
func NewDispatcher(cfg Config) *Dispatcher {
	return &Dispatcher{cfg: cfg, results: xsync.NewMapOf[string, Job]()}
}

// Run dispatches rsync-then-ssh to every node in nodeset and returns
// the per-node Job outcomes. Line output from each client is prefixed
// with "<nodename>: " on stdout, per spec.md §4.6; %synctool-log% lines
// are intercepted and forwarded to syslog instead of being printed.
func (d *Dispatcher) Run(ctx context.Context, nodeset []string, stdout io.Writer) ([]Job, error) {
	pool := workpool.New[string](d.cfg.NumProc, d.cfg.SleepTime, func(ctx context.Context, worker int, node string) error {
		job := d.runNode(ctx, node, stdout)
		d.results.Store(node, job)
		if job.RsyncErr != nil {
			return fmt.Errorf("%s: rsync: %w", node, job.RsyncErr)
		}
		if job.ClientErr != nil {
			return fmt.Errorf("%s: client: %w", node, job.ClientErr)
		}
		return nil
	})

	go func() {
		select {
		case <-ctx.Done():
			pool.Cancel()
		case <-pool.Done():
		}
	}()

	for _, n := range nodeset {
		pool.Submit(n)
	}
	pool.Close()
	err := pool.Wait()

	jobs := make([]Job, 0, len(nodeset))
	for _, n := range nodeset {
		if j, ok := d.results.Load(n); ok {
			jobs = append(jobs, j)
		}
	}
	return jobs, err
}

func (d *Dispatcher) runNode(ctx context.Context, node string, stdout io.Writer) Job {
	job := Job{Node: node}

	if !d.cfg.SkipRsync {
		src := strings.TrimRight(d.cfg.Masterdir, "/") + "/"
		dst := fmt.Sprintf("%s:%s/", node, d.cfg.Masterdir)
		cmd := exec.CommandContext(ctx, d.cfg.RsyncCmd, "-a", src, dst)
		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out
		job.RsyncErr = cmd.Run()
		prefixLines(stdout, node, &out, nil)
		if exitErr, ok := job.RsyncErr.(*exec.ExitError); ok {
			job.RsyncCode = exitErr.ExitCode()
		}
		if job.RsyncErr != nil {
			return job
		}
	}

	args := append([]string{node, d.cfg.SynctoolCmd}, d.cfg.ExtraArgs...)
	cmd := exec.CommandContext(ctx, d.cfg.SSHCmd, args...)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		job.ClientErr = err
		return job
	}
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		job.ClientErr = err
		return job
	}

	prefixLines(stdout, node, stdoutPipe, d.cfg.Syslog)

	job.ClientErr = cmd.Wait()
	if stderrBuf.Len() > 0 {
		prefixLines(stdout, node, &stderrBuf, nil)
	}
	if exitErr, ok := job.ClientErr.(*exec.ExitError); ok {
		job.ClientCode = exitErr.ExitCode()
	}
	return job
}

// prefixLines copies r line by line to w, prefixing each with
// "<node>: ", intercepting %synctool-log% markers and forwarding them
// to sl instead of printing them (spec.md §6).
func prefixLines(w io.Writer, node string, r io.Reader, sl *syslog.Writer) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if msg, ok := stripLogMarker(line); ok {
			if msg == logx.Heartbeat {
				continue // reserved heartbeat, swallowed
			}
			if sl != nil {
				sl.Info(fmt.Sprintf("%s: %s", node, msg))
			}
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", node, line)
	}
}

// stripLogMarker recognizes "MARKER SP MSG" and returns MSG, or ok=false
// if line doesn't start with the marker.
func stripLogMarker(line string) (msg string, ok bool) {
	if !strings.HasPrefix(line, LogMarker) {
		return "", false
	}
	rest := line[len(LogMarker):]
	return strings.TrimPrefix(rest, " "), true
}
