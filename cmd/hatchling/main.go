// hatchling registers itself with a running herder: it spawns an entity
// under its own name on startup, then waits, then kills that entity again
// on SIGINT or SIGTERM. It is the companion client binary for herderd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/hatchling"
	"github.com/hupe1980/turtleherd/logging"
	"github.com/hupe1980/turtleherd/wsbridge"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hatchling:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		herderURL  string
		name       string
		allowAlias bool
		timeout    time.Duration
		logLevel   string
	)
	pflag.StringVar(&herderURL, "herder", "http://localhost:8471", "base URL of the herder gateway")
	pflag.StringVarP(&name, "name", "n", "", "entity name to register under (defaults to hostname)")
	pflag.BoolVar(&allowAlias, "allow-alias", true, "accept a suffixed name when the requested one is taken")
	pflag.DurationVar(&timeout, "timeout", hatchling.DefaultTimeout, "per-request response deadline")
	pflag.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pflag.Parse()

	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("no --name given and hostname lookup failed: %w", err)
		}
		name = hostname
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(logLevel), "text", false).
		WithContext("herder", herderURL)

	dialCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	conn, err := wsbridge.Dial(dialCtx, herderURL, func(o *wsbridge.ClientOptions) {
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("dial herder: %w", err)
	}
	defer conn.Close()

	client := hatchling.New(conn, func(o *hatchling.Options) {
		o.Timeout = timeout
		o.Logger = logger
	})

	spawnCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	granted, err := client.Spawn(spawnCtx, core.SpawnRequest{
		RequestID:  core.NewID(),
		Name:       name,
		AllowAlias: allowAlias,
	})
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	logger.Info("registered with herder", "requested", name, "granted", granted)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	killCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Kill(killCtx, granted); err != nil {
		return fmt.Errorf("deregister %q: %w", granted, err)
	}
	logger.Info("deregistered from herder", "entity", granted)
	return nil
}
