// Package testutil provides a private session bus and fixture helpers for tests.
package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/portal-test-account/internal/fixture"
)

// sessionConfigTemplate is a permissive session bus config listening on a
// filesystem socket. Abstract sockets are avoided so parallel tests cannot
// collide.
//
// Args: sockPath
const sessionConfigTemplate = `<?xml version="1.0"?>
<!DOCTYPE busconfig PUBLIC "-//freedesktop//DTD D-BUS Bus Configuration 1.0//EN"
 "http://www.freedesktop.org/standards/dbus/1.0/busconfig.dtd">
<busconfig>
  <type>session</type>
  <listen>unix:path=%s</listen>
  <auth>EXTERNAL</auth>
  <policy context="default">
    <allow send_destination="*" eavesdrop="true"/>
    <allow eavesdrop="true"/>
    <allow own="*"/>
  </policy>
</busconfig>`

// StartBus starts a private dbus-daemon and returns its address. The test is
// skipped when dbus-daemon is not installed.
func StartBus(t *testing.T) string {
	t.Helper()

	daemon, err := exec.LookPath("dbus-daemon")
	if err != nil {
		t.Skip("dbus-daemon not installed")
	}

	tmpDir := t.TempDir()
	sockPath := filepath.Join(tmpDir, "bus.sock")
	confPath := filepath.Join(tmpDir, "session.conf")

	if err := os.WriteFile(confPath, []byte(fmt.Sprintf(sessionConfigTemplate, sockPath)), 0600); err != nil {
		t.Fatalf("write bus config: %v", err)
	}

	cmd := exec.Command(daemon, "--config-file="+confPath, "--nofork")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start dbus-daemon: %v", err)
	}
	t.Cleanup(func() {
		cmd.Process.Kill() //nolint:errcheck
		cmd.Wait()         //nolint:errcheck
	})

	// Wait for socket file to appear (50 * 100ms = 5s max).
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(sockPath); err == nil {
			return "unix:path=" + sockPath
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("dbus-daemon socket not created in time")
	return ""
}

// Connect opens a client connection to addr, closed at test cleanup.
func Connect(t *testing.T, addr string) *dbus.Conn {
	t.Helper()
	conn, err := dbus.Connect(addr)
	if err != nil {
		t.Fatalf("connect %s: %v", addr, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// NameOwner returns the unique name owning name, or "" if it has no owner.
func NameOwner(conn *dbus.Conn, name string) string {
	var owner string
	if err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, name).Store(&owner); err != nil {
		return ""
	}
	return owner
}

// WaitForOwner polls until name is owned by someone other than prev and
// returns the new owner.
func WaitForOwner(t *testing.T, conn *dbus.Conn, name, prev string) string {
	t.Helper()
	for i := 0; i < 50; i++ {
		if owner := NameOwner(conn, name); owner != "" && owner != prev {
			return owner
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("bus name %q not (re)owned in time", name)
	return ""
}

// WriteFixture writes content as the account fixture in dir.
func WriteFixture(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(fixture.Path(dir), []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}
