package portal

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
)

// busClient abstracts the bus daemon queries for testing.
type busClient interface {
	GetConnectionUnixProcessID(sender string) (uint32, error)
}

// CallerResolver maps a D-Bus sender to the name of its process, for logs.
type CallerResolver struct {
	client   busClient
	readComm func(pid uint32) string
}

// NewCallerResolver creates a resolver querying the bus behind conn.
func NewCallerResolver(conn *dbus.Conn) *CallerResolver {
	return &CallerResolver{client: &realBusClient{conn: conn}, readComm: readComm}
}

// Resolve returns "comm[pid]" for sender, the unique name alone when the
// PID is unavailable, or an empty string for an empty sender. It never fails.
func (r *CallerResolver) Resolve(sender string) string {
	if sender == "" {
		return ""
	}
	pid, err := r.client.GetConnectionUnixProcessID(sender)
	if err != nil {
		slog.Debug("failed to get connection PID", "sender", sender, "error", err)
		return sender
	}
	comm := r.readComm(pid)
	if comm == "" {
		return fmt.Sprintf("%s[%d]", sender, pid)
	}
	return fmt.Sprintf("%s[%d]", comm, pid)
}

// readComm reads the process name from /proc/<pid>/comm.
// Returns empty string on error.
func readComm(pid uint32) string {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/comm", pid))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// realBusClient implements busClient using a real D-Bus connection.
type realBusClient struct {
	conn *dbus.Conn
}

func (c *realBusClient) GetConnectionUnixProcessID(sender string) (uint32, error) {
	var pid uint32
	err := c.conn.BusObject().Call("org.freedesktop.DBus.GetConnectionUnixProcessID", 0, sender).Store(&pid)
	if err != nil {
		return 0, err
	}
	return pid, nil
}
