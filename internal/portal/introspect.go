package portal

import (
	"github.com/godbus/dbus/v5/introspect"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
)

// AccountIntrospection describes the Account interface with named arguments.
var AccountIntrospection = introspect.Interface{
	Name: dbustypes.AccountInterface,
	Methods: []introspect.Method{
		{
			Name: "GetUserInformation",
			Args: []introspect.Arg{
				{Name: "handle", Type: "o", Direction: "in"},
				{Name: "app_id", Type: "s", Direction: "in"},
				{Name: "parent_window", Type: "s", Direction: "in"},
				{Name: "options", Type: "a{sv}", Direction: "in"},
				{Name: "response", Type: "u", Direction: "out"},
				{Name: "results", Type: "a{sv}", Direction: "out"},
			},
		},
	},
	Properties: []introspect.Property{
		{Name: "version", Type: "u", Access: "read"},
	},
}

// Introspectable returns the introspection object exported beside Account.
func Introspectable() introspect.Introspectable {
	node := &introspect.Node{
		Name: string(dbustypes.ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name: dbustypes.PropertiesInterface,
				Methods: []introspect.Method{
					{Name: "Get", Args: []introspect.Arg{
						{Name: "interface", Type: "s", Direction: "in"},
						{Name: "property", Type: "s", Direction: "in"},
						{Name: "value", Type: "v", Direction: "out"},
					}},
					{Name: "GetAll", Args: []introspect.Arg{
						{Name: "interface", Type: "s", Direction: "in"},
						{Name: "properties", Type: "a{sv}", Direction: "out"},
					}},
					{Name: "Set", Args: []introspect.Arg{
						{Name: "interface", Type: "s", Direction: "in"},
						{Name: "property", Type: "s", Direction: "in"},
						{Name: "value", Type: "v", Direction: "in"},
					}},
				},
			},
			AccountIntrospection,
		},
	}
	return introspect.NewIntrospectable(node)
}
