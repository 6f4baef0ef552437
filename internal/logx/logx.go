// Package logx wires structured logging for both synctool binaries.
// Grounded on opencoff-go-fio's testsuite/run.go, which constructs a
// github.com/opencoff/go-logger.Logger with a named prefix and a flag
// bitmask — the same construction used here, generalized to the
// client/master's own log destinations (spec.md §6's logfile/
// syslogging config keys) instead of a per-test log file.
package logx

import (
	"fmt"
	"os"

	logger "github.com/opencoff/go-logger"
)

// New builds a Logger writing to logfile (os.Stderr if empty) at the
// given level, tagged with prefix (normally the nodename).
func New(logfile, prefix string, verbose, quiet bool) (logger.Logger, error) {
	level := logger.LOG_INFO
	switch {
	case quiet:
		level = logger.LOG_ERR
	case verbose:
		level = logger.LOG_DEBUG
	}

	dest := logfile
	if dest == "" {
		dest = os.Stderr.Name()
	}

	log, err := logger.NewLogger(dest, level, prefix, logger.Ldate|logger.Ltime)
	if err != nil {
		return nil, fmt.Errorf("logx: %w", err)
	}
	return log, nil
}

// Stdlog is a fallback Logger used before configuration is loaded
// (e.g. to report a config parse error itself).
func Stdlog(prefix string) logger.Logger {
	log, err := logger.NewLogger(os.Stderr.Name(), logger.LOG_INFO, prefix, logger.Ldate|logger.Ltime)
	if err != nil {
		panic(err) // stderr is always writable; this can't realistically fail
	}
	return log
}
