package daemon

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
)

// Event is one of the bus lifecycle notifications driving the main loop.
// The set is closed: BusAcquired, NameAcquired, NameLost and Fatal.
type Event interface {
	event()
}

// BusAcquired is delivered once the connection is up, before the name is
// requested. Objects are exported in response.
type BusAcquired struct {
	Conn *dbus.Conn
}

// NameAcquired reports that the well-known name is owned.
type NameAcquired struct {
	Name string
}

// NameLost reports that the name could not be obtained or was taken away.
// Reason is informational.
type NameLost struct {
	Name   string
	Reason string
}

// Fatal ends the loop with Err, for setup contract violations such as an
// unloadable fixture.
type Fatal struct {
	Err error
}

func (BusAcquired) event()  {}
func (NameAcquired) event() {}
func (NameLost) event()     {}
func (Fatal) event()        {}

// FatalError wraps the cause of a Fatal event returned from Run.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// loopState is what dispatch acts upon.
type loopState struct {
	exporter func(conn *dbus.Conn) error
	// owned is set between NameAcquired and NameLost.
	owned bool
}

// dispatch handles one event. It returns done=true when the loop must stop,
// with err describing a non-clean stop.
func (s *loopState) dispatch(ev Event) (done bool, err error) {
	switch ev := ev.(type) {
	case BusAcquired:
		if err := s.exporter(ev.Conn); err != nil {
			return true, err
		}
		slog.Debug(fmt.Sprintf("providing %s", dbustypes.AccountInterface))
		return false, nil

	case NameAcquired:
		if s.owned {
			// The RequestName reply and the bus signal both announce it.
			return false, nil
		}
		s.owned = true
		slog.Debug(fmt.Sprintf("%s acquired", ev.Name))
		SdNotify("READY=1", "STATUS=Owning "+ev.Name)
		return false, nil

	case NameLost:
		s.owned = false
		slog.Debug(fmt.Sprintf("%s lost", ev.Name), "reason", ev.Reason)
		return true, nil

	case Fatal:
		return true, &FatalError{Err: ev.Err}

	default:
		return true, fmt.Errorf("unknown event %T", ev)
	}
}
