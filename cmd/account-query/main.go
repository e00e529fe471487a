// account-query calls GetUserInformation on the test Account portal and
// prints the reply, for poking at a running backend by hand.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
	"github.com/nikicat/portal-test-account/internal/logging"
)

func main() {
	var (
		reason     = flag.String("reason", "", "Reason option to send")
		noReason   = flag.Bool("no-reason", false, "Do not send a reason option")
		appID      = flag.String("app-id", "org.example.App", "Application ID to pass")
		parent     = flag.String("parent-window", "", "Parent window identifier")
		busAddress = flag.String("bus-address", "", "D-Bus address (default: session bus)")
		busName    = flag.String("bus-name", dbustypes.BusName, "Bus name of the backend")
	)
	flag.Parse()

	var conn *dbus.Conn
	var err error
	if *busAddress == "" {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.Connect(*busAddress)
	}
	if err != nil {
		logging.Errorf("No session bus: %v", err)
		os.Exit(2)
	}
	defer conn.Close()

	options := map[string]dbus.Variant{}
	if !*noReason {
		options["reason"] = dbus.MakeVariant(*reason)
	}

	response, results, err := query(conn.Object(*busName, dbustypes.ObjectPath), *appID, *parent, options)
	if err != nil {
		logging.Errorf("GetUserInformation: %v", err)
		os.Exit(1)
	}
	printReply(os.Stdout, response, results)
}

func query(obj dbus.BusObject, appID, parent string, options map[string]dbus.Variant) (uint32, map[string]dbus.Variant, error) {
	handle := dbus.ObjectPath("/org/freedesktop/portal/desktop/request/account_query/1")
	var response uint32
	var results map[string]dbus.Variant
	err := obj.Call(dbustypes.AccountInterface+".GetUserInformation", 0, handle, appID, parent, options).
		Store(&response, &results)
	return response, results, err
}

// printReply writes the response code and results as sorted key=value lines.
func printReply(w io.Writer, response uint32, results map[string]dbus.Variant) {
	fmt.Fprintf(w, "response=%d\n", response)
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := results[k].Value()
		if s, ok := v.(string); ok {
			fmt.Fprintf(w, "%s=%s\n", k, s)
		} else {
			fmt.Fprintf(w, "%s=%v\n", k, v)
		}
	}
}
