// Package daemon owns the test portal's well-known bus name, exports the
// Account backend and runs the main loop until the name is lost.
package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
	"github.com/nikicat/portal-test-account/internal/fixture"
	"github.com/nikicat/portal-test-account/internal/logging"
	"github.com/nikicat/portal-test-account/internal/portal"
)

// Config holds daemon startup parameters.
type Config struct {
	// BusAddress is the D-Bus address to connect to.
	// Empty means the session bus. Non-empty connects to a custom address,
	// which integration tests use to point at a private dbus-daemon.
	BusAddress string

	// BusName and ObjectPath default to the portal test backend names.
	BusName    string
	ObjectPath dbus.ObjectPath

	// Replace asks the bus to take the name from its current owner.
	Replace bool

	// DataDir fixes the fixture directory. Empty reads XDG_DATA_HOME on
	// every call.
	DataDir string

	// WatchFixture logs edits of the fixture file at debug level.
	WatchFixture bool
}

func (c Config) withDefaults() Config {
	if c.BusName == "" {
		c.BusName = dbustypes.BusName
	}
	if c.ObjectPath == "" {
		c.ObjectPath = dbustypes.ObjectPath
	}
	return c
}

// ConnectError reports that the bus could not be reached.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return "No session bus: " + e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }

// ExportError reports that an interface could not be exported.
type ExportError struct {
	Interface string
	Err       error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("Failed to export %s skeleton: %s", e.Interface, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Run connects to the bus, exports the Account backend, requests the bus
// name and blocks until the name is lost or ctx is cancelled. Both return
// nil. A *ConnectError, *ExportError or *FatalError is returned otherwise.
func Run(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()

	conn, err := connect(cfg.BusAddress)
	if err != nil {
		return &ConnectError{Err: err}
	}
	defer conn.Close()

	// The loop context is the main loop handle: everything that must be able
	// to stop the loop posts an event through it.
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan Event, 8)
	post := func(ev Event) {
		select {
		case events <- ev:
		case <-loopCtx.Done():
		}
	}

	// Subscribe before requesting the name so a NameLost cannot slip past.
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameLost"),
		dbus.WithMatchArg(0, cfg.BusName),
	); err != nil {
		slog.Warn("failed to add NameLost match", "error", err)
	}
	signals := make(chan *dbus.Signal, 8)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)
	go watchOwnership(loopCtx, signals, cfg.BusName, post)

	opts := []portal.Option{
		portal.WithFatal(func(err error) { post(Fatal{Err: err}) }),
		portal.WithCallLogger(logging.NewCallLogger(nil)),
		portal.WithCallerResolver(portal.NewCallerResolver(conn)),
	}
	if cfg.DataDir != "" {
		opts = append(opts, portal.WithDataDir(cfg.DataDir))
	}
	account := portal.NewAccount(opts...)

	state := &loopState{
		exporter: func(c *dbus.Conn) error {
			return export(c, cfg.ObjectPath, account)
		},
	}

	if cfg.WatchFixture {
		startFixtureWatcher(loopCtx, cfg.DataDir)
	}

	if done, err := state.dispatch(BusAcquired{Conn: conn}); done {
		return err
	}

	defer func() {
		SdNotify("STOPPING=1")
		if !state.owned {
			return
		}
		if _, err := conn.ReleaseName(cfg.BusName); err != nil {
			slog.Debug("release name failed", "name", cfg.BusName, "error", err)
		}
	}()

	post(requestName(conn, cfg.BusName, cfg.Replace))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("shutting down")
			return nil

		case ev := <-events:
			if done, err := state.dispatch(ev); done {
				return err
			}
		}
	}
}

func connect(addr string) (*dbus.Conn, error) {
	if addr == "" {
		return dbus.ConnectSessionBus()
	}
	return dbus.Connect(addr)
}

// export publishes the Account object with its Properties and
// Introspectable companions at path.
func export(conn *dbus.Conn, path dbus.ObjectPath, account *portal.Account) error {
	if err := conn.Export(account, path, dbustypes.AccountInterface); err != nil {
		return &ExportError{Interface: dbustypes.AccountInterface, Err: err}
	}
	if err := conn.Export(portal.Properties{}, path, dbustypes.PropertiesInterface); err != nil {
		return &ExportError{Interface: dbustypes.PropertiesInterface, Err: err}
	}
	// Always export Introspectable so busctl and d-feet can see the method.
	if err := conn.Export(portal.Introspectable(), path, dbustypes.IntrospectableInterface); err != nil {
		return &ExportError{Interface: dbustypes.IntrospectableInterface, Err: err}
	}
	return nil
}

// requestName claims name with ALLOW_REPLACEMENT, adding REPLACE_EXISTING
// when replace is set. Anything short of ownership counts as a lost name,
// including being queued behind the current owner.
func requestName(conn *dbus.Conn, name string, replace bool) Event {
	flags := dbus.NameFlagAllowReplacement
	if replace {
		flags |= dbus.NameFlagReplaceExisting
	}

	reply, err := conn.RequestName(name, flags)
	if err != nil {
		return NameLost{Name: name, Reason: err.Error()}
	}
	switch reply {
	case dbus.RequestNameReplyPrimaryOwner, dbus.RequestNameReplyAlreadyOwner:
		return NameAcquired{Name: name}
	case dbus.RequestNameReplyInQueue:
		return NameLost{Name: name, Reason: "queued behind current owner"}
	default:
		return NameLost{Name: name, Reason: fmt.Sprintf("name exists (reply=%d)", reply)}
	}
}

// watchOwnership turns NameAcquired and NameLost bus signals for name into
// loop events. A closed signal channel means the connection is gone, which
// loses the name as well.
func watchOwnership(ctx context.Context, signals <-chan *dbus.Signal, name string, post func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-signals:
			if !ok {
				post(NameLost{Name: name, Reason: "bus connection closed"})
				return
			}
			if len(sig.Body) == 0 {
				continue
			}
			if arg, _ := sig.Body[0].(string); arg != name {
				continue
			}
			switch sig.Name {
			case "org.freedesktop.DBus.NameLost":
				post(NameLost{Name: name, Reason: "replaced by another owner"})
			case "org.freedesktop.DBus.NameAcquired":
				post(NameAcquired{Name: name})
			}
		}
	}
}

func startFixtureWatcher(ctx context.Context, dir string) {
	if dir == "" {
		var err error
		if dir, err = fixture.Dir(); err != nil {
			slog.Warn("fixture watcher disabled", "error", err)
			return
		}
	}
	w, err := fixture.NewWatcher(dir, nil)
	if err != nil {
		slog.Warn("fixture watcher disabled", "error", err)
		return
	}
	go w.Run(ctx) //nolint:errcheck
}
