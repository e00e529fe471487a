// portal-test-account is a test backend for org.freedesktop.impl.portal.Account.
// It answers GetUserInformation from $XDG_DATA_HOME/account so portal tests
// can script the reply.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/nikicat/portal-test-account/internal/config"
	"github.com/nikicat/portal-test-account/internal/daemon"
	"github.com/nikicat/portal-test-account/internal/logging"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitNoSession = 2
)

var progName = filepath.Base(os.Args[0])

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Keep GIO helpers spawned by tests off gvfs.
	os.Setenv("GIO_USE_VFS", "local") //nolint:errcheck

	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var verbose, replace bool
	fs.BoolVar(&verbose, "verbose", false, "Print debug information during command processing")
	fs.BoolVar(&verbose, "v", false, "Shorthand for --verbose")
	fs.BoolVar(&replace, "replace", false, "Replace a running instance")
	fs.BoolVar(&replace, "r", false, "Shorthand for --replace")
	configPath := fs.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/portal-test-account/config.yaml)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(fs)
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return exitFailure
	}

	// Load config and apply values for flags not explicitly set
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", progName, err)
		return exitFailure
	}
	set := setFlags(fs)
	if !set["verbose"] && !set["v"] && cfg.Verbose != nil {
		verbose = *cfg.Verbose
	}
	if !set["replace"] && !set["r"] && cfg.Replace != nil {
		replace = *cfg.Replace
	}

	logging.Setup(logging.Options{
		Verbose: verbose,
		Level:   logging.ParseLevel(cfg.LogLevel),
		Format:  cfg.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = daemon.Run(ctx, daemon.Config{
		BusAddress:   cfg.BusAddress,
		BusName:      cfg.BusName,
		ObjectPath:   dbus.ObjectPath(cfg.ObjectPath),
		Replace:      replace,
		DataDir:      cfg.DataDir,
		WatchFixture: cfg.WatchFixture != nil && *cfg.WatchFixture,
	})
	return exitCode(err)
}

// exitCode reports err and maps it to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	logging.Errorf("%v", err)

	var connErr *daemon.ConnectError
	if errors.As(err, &connErr) {
		return exitNoSession
	}
	return exitFailure
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stdout, "Usage: %s [options] - portal test backends\n\nOptions:\n", progName)
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}

// loadConfig loads a config file. An explicit path that doesn't exist is an error.
// A missing default path is silently ignored (returns empty config).
func loadConfig(explicitPath string) (*config.Config, error) {
	if explicitPath != "" {
		if _, statErr := os.Stat(explicitPath); statErr != nil {
			return nil, fmt.Errorf("config file not found: %s", explicitPath)
		}
		cfg, err := config.Load(explicitPath)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", explicitPath, err)
		}
		return cfg, nil
	}

	defaultPath := config.DefaultPath()
	if defaultPath == "" {
		return &config.Config{}, nil
	}
	cfg, err := config.Load(defaultPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", defaultPath, err)
	}
	return cfg, nil
}

// setFlags returns the set of flag names that were explicitly provided on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	m := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { m[f.Name] = true })
	return m
}
