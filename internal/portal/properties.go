package portal

import (
	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
)

// Properties implements org.freedesktop.DBus.Properties for the Account
// interface. The only property is the read-only interface version.
type Properties struct{}

// Get implements Properties.Get.
func (Properties) Get(iface, property string) (dbus.Variant, *dbus.Error) {
	if iface != dbustypes.AccountInterface {
		return dbus.Variant{}, dbustypes.ErrNoSuchInterface(iface)
	}
	if property != "version" {
		return dbus.Variant{}, dbustypes.ErrNoSuchProperty(iface, property)
	}
	return dbus.MakeVariant(dbustypes.AccountVersion), nil
}

// GetAll implements Properties.GetAll.
func (Properties) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != dbustypes.AccountInterface {
		return nil, dbustypes.ErrNoSuchInterface(iface)
	}
	return map[string]dbus.Variant{
		"version": dbus.MakeVariant(dbustypes.AccountVersion),
	}, nil
}

// Set implements Properties.Set. Every property is read-only.
func (Properties) Set(iface, property string, value dbus.Variant) *dbus.Error {
	if iface != dbustypes.AccountInterface {
		return dbustypes.ErrNoSuchInterface(iface)
	}
	if property != "version" {
		return dbustypes.ErrNoSuchProperty(iface, property)
	}
	return dbustypes.ErrReadOnly(property)
}
