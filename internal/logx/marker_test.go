package logx

import "testing"

func TestMasterLog(t *testing.T) {
	got := MasterLog("applied /etc/motd")
	want := "%synctool-log% applied /etc/motd"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestHeartbeatLine(t *testing.T) {
	got := HeartbeatLine()
	want := "%synctool-log% --"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
