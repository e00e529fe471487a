package daemon

import (
	"log/slog"
	"net"
	"os"
	"strings"
)

// SdNotify sends newline-joined state assignments to systemd via NOTIFY_SOCKET.
// If NOTIFY_SOCKET is not set (non-systemd environment), returns silently.
// Dial failures are logged as warnings and otherwise ignored.
func SdNotify(states ...string) {
	socket := os.Getenv("NOTIFY_SOCKET")
	if socket == "" || len(states) == 0 {
		return
	}
	conn, err := net.Dial("unixgram", socket)
	if err != nil {
		slog.Warn("sd-notify dial failed", "socket", socket, "err", err)
		return
	}
	defer conn.Close()
	conn.Write([]byte(strings.Join(states, "\n"))) //nolint:errcheck
}
