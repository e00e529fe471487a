package portal

import (
	"errors"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
)

func TestPropertiesVersion(t *testing.T) {
	var p Properties

	v, err := p.Get(dbustypes.AccountInterface, "version")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v.Value() != dbustypes.AccountVersion {
		t.Errorf("version = %v, want %d", v.Value(), dbustypes.AccountVersion)
	}

	all, err := p.GetAll(dbustypes.AccountInterface)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 || all["version"].Value() != dbustypes.AccountVersion {
		t.Errorf("GetAll = %v", all)
	}
}

func TestPropertiesErrors(t *testing.T) {
	var p Properties

	if _, err := p.Get("org.example.Other", "version"); err == nil || err.Name != dbustypes.ErrUnknownInterface {
		t.Errorf("Get on other interface: %v", err)
	}
	if _, err := p.Get(dbustypes.AccountInterface, "color"); err == nil || err.Name != dbustypes.ErrUnknownProperty {
		t.Errorf("Get unknown property: %v", err)
	}
	if _, err := p.GetAll("org.example.Other"); err == nil {
		t.Error("GetAll on other interface succeeded")
	}
	if err := p.Set(dbustypes.AccountInterface, "version", dbus.MakeVariant(uint32(2))); err == nil || err.Name != dbustypes.ErrPropertyReadOnly {
		t.Errorf("Set version: %v", err)
	}
}

func TestIntrospectable(t *testing.T) {
	xml, err := Introspectable().Introspect()
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}
	for _, want := range []string{dbustypes.AccountInterface, "GetUserInformation", "parent_window", `name="version"`} {
		if !strings.Contains(xml, want) {
			t.Errorf("introspection XML missing %q:\n%s", want, xml)
		}
	}
}

type fakeBusClient struct {
	pid uint32
	err error
}

func (f fakeBusClient) GetConnectionUnixProcessID(string) (uint32, error) {
	return f.pid, f.err
}

func TestCallerResolver(t *testing.T) {
	comms := map[uint32]string{42: "xdg-desktop-portal"}
	read := func(pid uint32) string { return comms[pid] }

	tests := []struct {
		name   string
		client fakeBusClient
		sender string
		want   string
	}{
		{"known process", fakeBusClient{pid: 42}, ":1.5", "xdg-desktop-portal[42]"},
		{"unreadable proc", fakeBusClient{pid: 7}, ":1.5", ":1.5[7]"},
		{"pid lookup fails", fakeBusClient{err: errors.New("no such name")}, ":1.5", ":1.5"},
		{"empty sender", fakeBusClient{pid: 42}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &CallerResolver{client: tt.client, readComm: read}
			if got := r.Resolve(tt.sender); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.sender, got, tt.want)
			}
		})
	}
}
