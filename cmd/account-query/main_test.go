package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/portal-test-account/internal/daemon"
	dbustypes "github.com/nikicat/portal-test-account/internal/dbus"
	"github.com/nikicat/portal-test-account/internal/testutil"
)

func TestPrintReply(t *testing.T) {
	var buf bytes.Buffer
	printReply(&buf, 0, map[string]dbus.Variant{
		"name":  dbus.MakeVariant("B"),
		"id":    dbus.MakeVariant("A"),
		"image": dbus.MakeVariant("C"),
	})
	want := "response=0\nid=A\nimage=C\nname=B\n"
	if buf.String() != want {
		t.Errorf("printReply = %q, want %q", buf.String(), want)
	}
}

func TestQueryAgainstDaemon(t *testing.T) {
	addr := testutil.StartBus(t)
	dir := t.TempDir()
	testutil.WriteFixture(t, dir, "[account]\nreason=why\nid=me\n")

	client := testutil.Connect(t, addr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go daemon.Run(ctx, daemon.Config{BusAddress: addr, DataDir: dir}) //nolint:errcheck
	testutil.WaitForOwner(t, client, dbustypes.BusName, "")

	obj := client.Object(dbustypes.BusName, dbustypes.ObjectPath)
	response, results, err := query(obj, "org.example.App", "", map[string]dbus.Variant{
		"reason": dbus.MakeVariant("why"),
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var buf bytes.Buffer
	printReply(&buf, response, results)
	if want := "response=0\nid=me\n"; buf.String() != want {
		t.Errorf("reply = %q, want %q", buf.String(), want)
	}
}
