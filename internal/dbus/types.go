// Package dbus provides D-Bus names and error helpers for the Account portal backend.
package dbus

import "github.com/godbus/dbus/v5"

// D-Bus names the test backend answers on.
const (
	BusName          = "org.freedesktop.impl.portal.Test"
	ObjectPath       = dbus.ObjectPath("/org/freedesktop/portal/desktop")
	AccountInterface = "org.freedesktop.impl.portal.Account"

	PropertiesInterface     = "org.freedesktop.DBus.Properties"
	IntrospectableInterface = "org.freedesktop.DBus.Introspectable"

	// AccountVersion is the value of the Account interface "version" property.
	AccountVersion uint32 = 1
)

// Response codes of org.freedesktop.impl.portal.Request replies.
const (
	ResponseSuccess   uint32 = 0
	ResponseCancelled uint32 = 1
	ResponseOther     uint32 = 2
)

// Error names.
//
// GIO errors that have no registered D-Bus mapping travel under the
// "unmapped" name GDBus derives from the error quark and code. G_IO_ERROR
// is not registered, so G_IO_ERROR_FAILED (code 0) becomes ErrIOFailed.
const (
	ErrIOFailed         = "org.gtk.GDBus.UnmappedGError.Quark._g_2dio_2derror_2dquark.Code0"
	ErrFailed           = "org.freedesktop.DBus.Error.Failed"
	ErrUnknownProperty  = "org.freedesktop.DBus.Error.UnknownProperty"
	ErrPropertyReadOnly = "org.freedesktop.DBus.Error.PropertyReadOnly"
	ErrUnknownInterface = "org.freedesktop.DBus.Error.UnknownInterface"
)

// NewDBusError creates a D-Bus error with the given name and message.
func NewDBusError(name, message string) *dbus.Error {
	return &dbus.Error{
		Name: name,
		Body: []interface{}{message},
	}
}

// ErrBadReason is returned when the caller's reason does not match the fixture.
func ErrBadReason() *dbus.Error {
	return NewDBusError(ErrIOFailed, "Bad reason")
}

// ErrInternal returns a generic Failed error carrying msg.
func ErrInternal(msg string) *dbus.Error {
	return NewDBusError(ErrFailed, msg)
}

// ErrNoSuchProperty returns an UnknownProperty error.
func ErrNoSuchProperty(iface, property string) *dbus.Error {
	return NewDBusError(ErrUnknownProperty, "No such property "+property+" on interface "+iface)
}

// ErrNoSuchInterface returns an UnknownInterface error.
func ErrNoSuchInterface(iface string) *dbus.Error {
	return NewDBusError(ErrUnknownInterface, "No such interface "+iface)
}

// ErrReadOnly returns a PropertyReadOnly error.
func ErrReadOnly(property string) *dbus.Error {
	return NewDBusError(ErrPropertyReadOnly, "Property "+property+" is read-only")
}
