package hatchling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// DefaultTimeout bounds how long a caller waits for a correlated response
// before treating the request as failed.
const DefaultTimeout = 4 * time.Second

// Conn is the client's access to the two request/response channel pairs.
// broker.Broker satisfies it for in-process use; wsbridge.Client satisfies
// it across the concert boundary.
type Conn interface {
	SpawnRequests() chan<- core.SpawnRequest
	SpawnResponses() <-chan core.SpawnResponse
	KillRequests() chan<- core.KillRequest
	KillResponses() <-chan core.KillResponse
}

// Options holds configuration overrides passed to New.
type Options struct {
	// Timeout is the caller-side response deadline.
	Timeout time.Duration
	// Logger receives client diagnostics.
	Logger logging.Logger
}

// Client sends spawn and kill requests over a Conn and matches responses to
// callers by correlation token. Public methods are safe for concurrent use;
// many requests may be in flight at once.
type Client struct {
	conn    Conn
	timeout time.Duration
	logger  logging.Logger

	mu           sync.Mutex
	spawnWaiters map[string]chan core.SpawnResponse
	killWaiters  map[string]chan core.KillResponse
}

// New constructs a Client and starts its response routing. Routing stops by
// itself when the Conn's response channels close (broker shutdown).
func New(conn Conn, optFns ...func(o *Options)) *Client {
	opts := Options{Timeout: DefaultTimeout, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Client{
		conn:         conn,
		timeout:      opts.Timeout,
		logger:       opts.Logger,
		spawnWaiters: make(map[string]chan core.SpawnResponse),
		killWaiters:  make(map[string]chan core.KillResponse),
	}
	go c.routeSpawns()
	go c.routeKills()
	return c
}

func (c *Client) routeSpawns() {
	for resp := range c.conn.SpawnResponses() {
		c.mu.Lock()
		ch, ok := c.spawnWaiters[resp.RequestID]
		delete(c.spawnWaiters, resp.RequestID)
		c.mu.Unlock()
		if !ok {
			// Late response after the caller timed out.
			c.logger.Debug("dropping unmatched spawn response", "request_id", resp.RequestID)
			continue
		}
		ch <- resp
	}
}

func (c *Client) routeKills() {
	for resp := range c.conn.KillResponses() {
		c.mu.Lock()
		ch, ok := c.killWaiters[resp.RequestID]
		delete(c.killWaiters, resp.RequestID)
		c.mu.Unlock()
		if !ok {
			c.logger.Debug("dropping unmatched kill response", "request_id", resp.RequestID)
			continue
		}
		ch <- resp
	}
}

// Spawn requests a new entity and returns the name granted by the herder.
// Non-Ok statuses surface as taxonomy errors (core.ErrNameInUse and
// friends); a missing response surfaces core.ErrTimeout.
func (c *Client) Spawn(ctx context.Context, req core.SpawnRequest) (string, error) {
	if req.RequestID == "" {
		req.RequestID = core.NewID()
	}

	wait := make(chan core.SpawnResponse, 1)
	c.mu.Lock()
	c.spawnWaiters[req.RequestID] = wait
	c.mu.Unlock()
	defer c.forgetSpawn(req.RequestID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case c.conn.SpawnRequests() <- req:
	case <-ctx.Done():
		return "", fmt.Errorf("spawn %q: %w", req.Name, core.ErrTimeout)
	}

	select {
	case resp := <-wait:
		if err := core.ErrFor(resp.Status); err != nil {
			return "", fmt.Errorf("spawn %q: %w", req.Name, err)
		}
		return resp.Name, nil
	case <-ctx.Done():
		return "", fmt.Errorf("spawn %q: %w", req.Name, core.ErrTimeout)
	}
}

// Kill requests destruction of the named entity. Non-Ok statuses surface as
// taxonomy errors; a missing response surfaces core.ErrTimeout.
func (c *Client) Kill(ctx context.Context, name string) error {
	req := core.KillRequest{RequestID: core.NewID(), Name: name}

	wait := make(chan core.KillResponse, 1)
	c.mu.Lock()
	c.killWaiters[req.RequestID] = wait
	c.mu.Unlock()
	defer c.forgetKill(req.RequestID)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	select {
	case c.conn.KillRequests() <- req:
	case <-ctx.Done():
		return fmt.Errorf("kill %q: %w", name, core.ErrTimeout)
	}

	select {
	case resp := <-wait:
		if err := core.ErrFor(resp.Status); err != nil {
			return fmt.Errorf("kill %q: %w", name, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("kill %q: %w", name, core.ErrTimeout)
	}
}

func (c *Client) forgetSpawn(requestID string) {
	c.mu.Lock()
	delete(c.spawnWaiters, requestID)
	c.mu.Unlock()
}

func (c *Client) forgetKill(requestID string) {
	c.mu.Lock()
	delete(c.killWaiters, requestID)
	c.mu.Unlock()
}
