package wsbridge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// ClientOptions holds configuration overrides passed to Dial.
type ClientOptions struct {
	// BufferSize sets channel buffering for the local pair channels.
	BufferSize int
	// Logger receives client diagnostics.
	Logger logging.Logger
}

// Client dials a Gateway and presents the remote broker as local channel
// pairs. It satisfies hatchling.Conn, so a hatchling.Client layered on top
// cannot tell a remote herder from an in-process one. Response channels
// close when the underlying sockets do.
type Client struct {
	spawnReqs  chan core.SpawnRequest
	spawnResps chan core.SpawnResponse
	killReqs   chan core.KillRequest
	killResps  chan core.KillResponse

	spawnConn *websocket.Conn
	killConn  *websocket.Conn
	logger    logging.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects both pair endpoints under baseURL (http:// and https:// are
// rewritten to the websocket scheme).
func Dial(ctx context.Context, baseURL string, optFns ...func(o *ClientOptions)) (*Client, error) {
	opts := ClientOptions{BufferSize: 32, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	base := wsURL(baseURL)
	spawnConn, _, err := websocket.DefaultDialer.DialContext(ctx, base+SpawnPath, nil)
	if err != nil {
		return nil, fmt.Errorf("dial spawn pair: %w", err)
	}
	killConn, _, err := websocket.DefaultDialer.DialContext(ctx, base+KillPath, nil)
	if err != nil {
		spawnConn.Close()
		return nil, fmt.Errorf("dial kill pair: %w", err)
	}

	c := &Client{
		spawnReqs:  make(chan core.SpawnRequest, opts.BufferSize),
		spawnResps: make(chan core.SpawnResponse, opts.BufferSize),
		killReqs:   make(chan core.KillRequest, opts.BufferSize),
		killResps:  make(chan core.KillResponse, opts.BufferSize),
		spawnConn:  spawnConn,
		killConn:   killConn,
		logger:     opts.Logger,
		done:       make(chan struct{}),
	}

	go writePump(c.done, c.spawnConn, c.spawnReqs, c.logger)
	go writePump(c.done, c.killConn, c.killReqs, c.logger)
	go readPump(c.spawnConn, c.spawnResps, c.logger)
	go readPump(c.killConn, c.killResps, c.logger)
	return c, nil
}

// SpawnRequests returns the local spawn arrival channel.
func (c *Client) SpawnRequests() chan<- core.SpawnRequest { return c.spawnReqs }

// SpawnResponses returns the channel paired with SpawnRequests.
func (c *Client) SpawnResponses() <-chan core.SpawnResponse { return c.spawnResps }

// KillRequests returns the local kill arrival channel.
func (c *Client) KillRequests() chan<- core.KillRequest { return c.killReqs }

// KillResponses returns the channel paired with KillRequests.
func (c *Client) KillResponses() <-chan core.KillResponse { return c.killResps }

// Close tears down both sockets. The response channels close once the read
// pumps observe the closed sockets.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.spawnConn.Close()
		c.killConn.Close()
	})
	return nil
}

// writePump forwards local requests onto the socket until Close.
func writePump[T any](done <-chan struct{}, conn *websocket.Conn, reqs <-chan T, logger logging.Logger) {
	for {
		select {
		case <-done:
			return
		case req := <-reqs:
			if err := conn.WriteJSON(req); err != nil {
				logger.Warn("bridge write failed", "error", err)
				return
			}
		}
	}
}

// readPump forwards socket responses onto the local channel until the
// socket closes, then closes the channel so downstream routers exit.
func readPump[T any](conn *websocket.Conn, resps chan<- T, logger logging.Logger) {
	defer close(resps)
	for {
		var resp T
		if err := conn.ReadJSON(&resp); err != nil {
			logger.Debug("bridge read loop done", "error", err)
			return
		}
		resps <- resp
	}
}

func wsURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
