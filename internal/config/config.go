// Package config parses synctool's key-value configuration file
// (spec §6) into a validated Config. Grounded on
// original_source/src/synctool_config.py's read_config() (defaults,
// implicit groups, masterdir/overlay/delete directory checks) and on
// opencoff-go-fio's testsuite split.go/flag_size.go for how the
// corpus tokenizes a command-valued config line
// (github.com/opencoff/shlex) and parses a size-valued one
// (github.com/opencoff/go-utils.ParseSize).
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	utils "github.com/opencoff/go-utils"
	"github.com/opencoff/shlex"

	"github.com/Linuxtester/synctool/internal/group"
)

// NodeDef is a node as declared in the config file, before the
// implicit nodename/all groups are added (see GroupList).
type NodeDef struct {
	Name    string
	Groups  []string
	Address string
	Host    string
}

// Config is the fully parsed and validated configuration.
type Config struct {
	Masterdir string
	Tempdir   string

	Groups map[string][]string // group name -> member group/node names (informational)
	Nodes  map[string]NodeDef

	IgnoreGroups   []string
	DefaultNodeset []string

	DiffCmd     string
	PingCmd     string
	SSHCmd      string
	SCPCmd      string
	RsyncCmd    string
	SynctoolCmd string
	PkgCmd      string
	PackageMgr  string

	NumProc   int
	SleepTime time.Duration

	SymlinkMode os.FileMode

	Logfile    string
	Syslogging bool

	Terse             bool
	Colorize          bool
	ColorizeBright    bool
	ColorizeFullLine  bool
	TerseColors       map[string]string
	FullPath          bool

	path string // source file, for error messages
}

// ConfigError reports a fatal configuration problem with the file
// path it came from, per spec.md §7 ("printed with the offending
// config file path").
type ConfigError struct {
	Path string
	Msg  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// Parse reads and validates the config file at path.
func Parse(path string) (*Config, error) {
	cfg := &Config{
		Groups:      make(map[string][]string),
		Nodes:       make(map[string]NodeDef),
		TerseColors: make(map[string]string),
		NumProc:     1,
		SymlinkMode: 0777,
		path:        path,
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error()}
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields, err := shlex.Split(line)
		if err != nil {
			return nil, &ConfigError{Path: path, Msg: fmt.Sprintf("line %d: %s", lineNo, err)}
		}
		if len(fields) == 0 {
			continue
		}
		if err := cfg.applyDirective(fields); err != nil {
			return nil, &ConfigError{Path: path, Msg: fmt.Sprintf("line %d: %s", lineNo, err)}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ConfigError{Path: path, Msg: err.Error()}
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDirective(fields []string) error {
	key := strings.ToLower(fields[0])
	rest := fields[1:]

	switch key {
	case "masterdir":
		c.Masterdir = arg1(rest)
	case "tempdir":
		c.Tempdir = arg1(rest)
	case "group":
		if len(rest) < 1 {
			return fmt.Errorf("group: missing name")
		}
		name := rest[0]
		if _, dup := c.Groups[name]; dup {
			return fmt.Errorf("duplicate group '%s'", name)
		}
		c.Groups[name] = rest[1:]
	case "node":
		if len(rest) < 1 {
			return fmt.Errorf("node: missing name")
		}
		return c.applyNode(rest)
	case "ignore_group":
		c.IgnoreGroups = append(c.IgnoreGroups, rest...)
	case "default_nodeset":
		c.DefaultNodeset = append(c.DefaultNodeset, rest...)
	case "diff_cmd":
		c.DiffCmd = arg1(rest)
	case "ping_cmd":
		c.PingCmd = arg1(rest)
	case "ssh_cmd":
		c.SSHCmd = arg1(rest)
	case "scp_cmd":
		c.SCPCmd = arg1(rest)
	case "rsync_cmd":
		c.RsyncCmd = arg1(rest)
	case "synctool_cmd":
		c.SynctoolCmd = arg1(rest)
	case "pkg_cmd":
		c.PkgCmd = arg1(rest)
	case "package_manager":
		c.PackageMgr = arg1(rest)
	case "num_proc":
		n, err := strconv.Atoi(arg1(rest))
		if err != nil {
			return fmt.Errorf("num_proc: %w", err)
		}
		c.NumProc = n
	case "sleep_time":
		secs, err := strconv.ParseFloat(arg1(rest), 64)
		if err != nil {
			return fmt.Errorf("sleep_time: %w", err)
		}
		c.SleepTime = time.Duration(secs * float64(time.Second))
	case "symlink_mode":
		z, err := utils.ParseSize(arg1(rest))
		if err != nil {
			// symlink_mode is historically octal, not a size suffix;
			// fall back to octal parsing when ParseSize can't handle it.
			m, perr := strconv.ParseUint(arg1(rest), 8, 32)
			if perr != nil {
				return fmt.Errorf("symlink_mode: %w", err)
			}
			c.SymlinkMode = os.FileMode(m)
			return nil
		}
		c.SymlinkMode = os.FileMode(z)
	case "logfile":
		c.Logfile = arg1(rest)
	case "syslogging":
		c.Syslogging = boolArg(rest)
	case "terse":
		c.Terse = boolArg(rest)
	case "colorize":
		c.Colorize = boolArg(rest)
	case "colorize_bright":
		c.ColorizeBright = boolArg(rest)
	case "colorize_full_line":
		c.ColorizeFullLine = boolArg(rest)
	case "terse_colors":
		if len(rest) < 2 {
			return fmt.Errorf("terse_colors: need action and color name")
		}
		c.TerseColors[rest[0]] = rest[1]
	case "full_path":
		c.FullPath = boolArg(rest)
	default:
		return fmt.Errorf("unknown config command '%s'", fields[0])
	}
	return nil
}

func (c *Config) applyNode(rest []string) error {
	n := NodeDef{Name: rest[0]}
	for _, tok := range rest[1:] {
		switch {
		case strings.HasPrefix(tok, "ipaddress:"):
			n.Address = strings.TrimPrefix(tok, "ipaddress:")
		case strings.HasPrefix(tok, "hostname:"):
			n.Host = strings.TrimPrefix(tok, "hostname:")
		default:
			n.Groups = append(n.Groups, tok)
		}
	}
	if _, dup := c.Nodes[n.Name]; dup {
		return fmt.Errorf("duplicate node '%s'", n.Name)
	}
	c.Nodes[n.Name] = n
	return nil
}

func arg1(rest []string) string {
	if len(rest) == 0 {
		return ""
	}
	return rest[0]
}

func boolArg(rest []string) bool {
	if len(rest) == 0 {
		return true
	}
	switch strings.ToLower(rest[0]) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// finalize applies defaults and structural validation, mirroring
// synctool_config.py's read_config(): missing masterdir is defaulted,
// overlay/all and delete/all must exist under masterdir, 'all' and
// 'none' are implicit groups, 'none' is always in the ignore set.
func (c *Config) finalize() error {
	if c.Masterdir == "" {
		c.Masterdir = "/var/lib/synctool"
	}
	if c.Tempdir == "" {
		c.Tempdir = "/tmp/synctool"
	}
	if c.NumProc <= 0 {
		c.NumProc = 1
	}

	for _, d := range []string{
		filepath.Join(c.Masterdir, "overlay"),
		filepath.Join(c.Masterdir, "overlay", "all"),
		filepath.Join(c.Masterdir, "delete"),
		filepath.Join(c.Masterdir, "delete", "all"),
	} {
		fi, err := os.Stat(d)
		if err != nil || !fi.IsDir() {
			return &ConfigError{Path: c.path, Msg: fmt.Sprintf("no such directory: %s", d)}
		}
	}

	if _, ok := c.Groups["all"]; !ok {
		c.Groups["all"] = nil
	}
	if _, ok := c.Groups["none"]; !ok {
		c.Groups["none"] = nil
	}

	hasNone := false
	for _, g := range c.IgnoreGroups {
		if g == group.None {
			hasNone = true
			break
		}
	}
	if !hasNone {
		c.IgnoreGroups = append(c.IgnoreGroups, group.None)
	}

	return nil
}

// GroupList builds the fully resolved, ordered group.List for node
// nm, matching synctool_config.py's implicit nodename-first/all-last
// convention (see internal/group.NewList).
func (c *Config) GroupList(nm string) (group.List, error) {
	n, ok := c.Nodes[nm]
	if !ok {
		return nil, fmt.Errorf("config: unknown node '%s'", nm)
	}
	return group.NewList(n.Name, n.Groups), nil
}
