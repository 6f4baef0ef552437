package logx

import "fmt"

// Marker is the in-band prefix a client writes to stdout to ask the
// master to forward a line to syslog instead of printing it (spec.md
// §6). internal/dispatch imports this constant rather than defining
// its own, so the emitting and consuming halves of the grammar can
// never drift apart.
const Marker = "%synctool-log%"

// Heartbeat is the reserved payload meaning "no-op, still alive"
// (REDESIGN FLAG c): the master swallows it without forwarding.
const Heartbeat = "--"

// MasterLog formats msg as a %synctool-log% line for a client to
// print to stdout.
func MasterLog(msg string) string {
	return fmt.Sprintf("%s %s", Marker, msg)
}

// HeartbeatLine is the literal heartbeat line a client may print
// periodically to prove liveness without emitting a real log message.
func HeartbeatLine() string {
	return MasterLog(Heartbeat)
}
