// herderd runs the turtle herder service: a broker over an in-process
// turtle field, exposed over the WebSocket gateway. On startup it sweeps
// the simulator's default turtle so the field begins empty; on SIGINT or
// SIGTERM it kills every remaining entity before exiting.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/hupe1980/turtleherd"
	"github.com/hupe1980/turtleherd/config"
	"github.com/hupe1980/turtleherd/logging"
	"github.com/hupe1980/turtleherd/turtle"
	"github.com/hupe1980/turtleherd/wsbridge"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "herderd:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		bind       string
		logLevel   string
	)
	pflag.StringVarP(&configPath, "config", "c", "", "path to YAML config file")
	pflag.StringVar(&bind, "bind", "", "listen address (overrides config)")
	pflag.StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	pflag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bind != "" {
		cfg.Bind = bind
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, false)

	field := turtle.NewField(func(o *turtle.Options) {
		o.Width = cfg.Field.Width
		o.Height = cfg.Field.Height
		o.Seed = cfg.Field.Seed
		o.DefaultTurtle = cfg.Field.DefaultTurtle
	})

	herd := turtleherd.New(field, func(o *turtleherd.Options) {
		o.BaseName = cfg.Herd.BaseName
		o.MaxConcurrentRequests = cfg.Herd.MaxConcurrentRequests
		o.BufferSize = cfg.Herd.BufferSize
		o.Logger = logger.WithComponent("herd")
	})

	// Clear the simulator's pre-existing turtle so the field starts empty.
	// The registry never knew it, so this goes straight to the surface.
	sweepField(field, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() { serveErr <- herd.Serve(ctx) }()

	gateway := wsbridge.NewGateway(herd.Broker(), func(o *wsbridge.GatewayOptions) {
		o.Logger = logger.WithComponent("gateway")
	})
	srv := &http.Server{Addr: cfg.Bind, Handler: gateway.Routes()}

	httpErr := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", cfg.Bind)
		httpErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-httpErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("gateway: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("gateway shutdown", "error", err)
	}
	if err := herd.Shutdown(shutdownCtx); err != nil {
		logger.Warn("herd shutdown left entities behind", "error", err)
	}
	<-serveErr
	return nil
}

// sweepField destroys turtles that existed before the herd took over, the
// classic default turtle1 included. Failures are logged and skipped; a
// stuck pre-existing turtle is not fatal.
func sweepField(field *turtle.Field, logger logging.Logger) {
	for _, t := range field.Turtles() {
		if err := field.Destroy(context.Background(), t.Handle); err != nil {
			logger.Warn("could not clear pre-existing turtle", "entity", t.Name, "error", err)
			continue
		}
		logger.Info("cleared pre-existing turtle", "entity", t.Name)
	}
}
