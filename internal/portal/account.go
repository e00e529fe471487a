// Package portal implements the test backend for org.freedesktop.impl.portal.Account.
package portal

import (
	"context"
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
	"github.com/nikicat/portal-test-account/internal/fixture"
	"github.com/nikicat/portal-test-account/internal/logging"
)

// OptionReason is the request option compared against the fixture.
const OptionReason = "reason"

// Account answers GetUserInformation from the fixture file.
type Account struct {
	// dataDir resolves the fixture directory for each call.
	dataDir func() (string, error)
	// fatal is invoked when the fixture cannot be loaded. The call still
	// gets an error reply so the caller does not hang.
	fatal   func(error)
	calls   *logging.CallLogger
	callers *CallerResolver

	// One call at a time, like a single-threaded main loop.
	mu sync.Mutex
}

// Option configures an Account.
type Option func(*Account)

// WithDataDir fixes the fixture directory instead of reading XDG_DATA_HOME.
func WithDataDir(dir string) Option {
	return func(a *Account) {
		a.dataDir = func() (string, error) { return dir, nil }
	}
}

// WithFatal sets the handler for unloadable fixtures.
func WithFatal(fn func(error)) Option {
	return func(a *Account) { a.fatal = fn }
}

// WithCallLogger sets the per-call logger.
func WithCallLogger(l *logging.CallLogger) Option {
	return func(a *Account) { a.calls = l }
}

// WithCallerResolver enables sender to process resolution for call logs.
func WithCallerResolver(r *CallerResolver) Option {
	return func(a *Account) { a.callers = r }
}

// NewAccount creates an Account reading the fixture from XDG_DATA_HOME.
func NewAccount(opts ...Option) *Account {
	a := &Account{
		dataDir: fixture.Dir,
		fatal:   func(error) {},
		calls:   logging.NewCallLogger(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetUserInformation implements org.freedesktop.impl.portal.Account.GetUserInformation.
func (a *Account) GetUserInformation(sender dbus.Sender, handle dbus.ObjectPath, appID, parentWindow string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, *dbus.Error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx := context.Background()
	requestID := logging.NewRequestID()
	caller := ""
	if a.callers != nil {
		caller = a.callers.Resolve(string(sender))
	}

	rec, err := a.load()
	if err != nil {
		a.calls.LogGetUserInformation(ctx, requestID, string(sender), caller, appID, nil, "fatal", err)
		a.fatal(err)
		return 0, nil, dbustypes.ErrInternal(err.Error())
	}

	results, dbusErr := UserInformation(rec, options)
	if dbusErr != nil {
		a.calls.LogGetUserInformation(ctx, requestID, string(sender), caller, appID, nil, "denied", dbusErr)
		return 0, nil, dbusErr
	}

	a.calls.LogGetUserInformation(ctx, requestID, string(sender), caller, appID, resultKeys(results), "success", nil)
	return dbustypes.ResponseSuccess, results, nil
}

func (a *Account) load() (*fixture.Record, error) {
	dir, err := a.dataDir()
	if err != nil {
		return nil, fmt.Errorf("locate fixture: %w", err)
	}
	return fixture.Load(dir)
}

// UserInformation computes the reply for options against rec. The caller's
// reason must equal the stored one byte for byte; a missing reason only
// matches a fixture without one. Fields that are absent or empty in rec are
// left out of the results.
func UserInformation(rec *fixture.Record, options map[string]dbus.Variant) (map[string]dbus.Variant, *dbus.Error) {
	if !sameReason(requestReason(options), rec.Reason) {
		return nil, dbustypes.ErrBadReason()
	}

	results := make(map[string]dbus.Variant, 3)
	for key, v := range map[string]*string{
		fixture.KeyID:    rec.ID,
		fixture.KeyName:  rec.Name,
		fixture.KeyImage: rec.Image,
	} {
		if v != nil && *v != "" {
			results[key] = dbus.MakeVariant(*v)
		}
	}
	return results, nil
}

// requestReason extracts the reason option. A value of any type other than
// string counts as absent.
func requestReason(options map[string]dbus.Variant) *string {
	v, ok := options[OptionReason]
	if !ok {
		return nil
	}
	s, ok := v.Value().(string)
	if !ok {
		return nil
	}
	return &s
}

func sameReason(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func resultKeys(results map[string]dbus.Variant) []string {
	keys := make([]string, 0, len(results))
	for _, k := range []string{fixture.KeyID, fixture.KeyName, fixture.KeyImage} {
		if _, ok := results[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
