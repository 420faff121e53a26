package wsbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// Endpoint paths, one per operation pair plus the mixed envelope endpoint
// for clients that prefer a single socket.
const (
	SpawnPath = "/pairs/spawn"
	KillPath  = "/pairs/kill"
	MixedPath = "/pairs"
)

const writeWait = 10 * time.Second

// Handler is the gateway's view of the broker: one synchronous call per
// request kind plus the tagged-envelope entry point, each guaranteed to
// return exactly one response. broker.Broker satisfies it.
type Handler interface {
	HandleSpawn(ctx context.Context, req core.SpawnRequest) core.SpawnResponse
	HandleKill(ctx context.Context, req core.KillRequest) core.KillResponse
	Dispatch(ctx context.Context, req core.Request) core.Response
}

// GatewayOptions holds configuration overrides passed to NewGateway.
type GatewayOptions struct {
	// ReadLimit bounds inbound frame size in bytes.
	ReadLimit int64
	// Logger receives gateway diagnostics.
	Logger logging.Logger
}

// Gateway serves the two channel pairs over WebSocket. Requests on one
// socket are handled concurrently; the per-connection write lock keeps
// response frames whole.
type Gateway struct {
	handler   Handler
	readLimit int64
	logger    logging.Logger
	upgrader  websocket.Upgrader
}

// NewGateway constructs a Gateway over the given handler.
func NewGateway(handler Handler, optFns ...func(o *GatewayOptions)) *Gateway {
	opts := GatewayOptions{ReadLimit: 1 << 16, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gateway{
		handler:   handler,
		readLimit: opts.ReadLimit,
		logger:    opts.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Peers are service processes, not browsers; origin checks do
			// not apply.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Routes returns a mux with both pair endpoints mounted.
func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(SpawnPath, http.HandlerFunc(g.serveSpawn))
	mux.Handle(KillPath, http.HandlerFunc(g.serveKill))
	mux.Handle(MixedPath, http.HandlerFunc(g.serveMixed))
	return mux
}

// wsConn wraps a connection with the write lock shared by all in-flight
// response writers.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (g *Gateway) serveSpawn(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.conn.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var req core.SpawnRequest
		if err := conn.conn.ReadJSON(&req); err != nil {
			g.logger.Debug("spawn pair closed", "remote", r.RemoteAddr, "error", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := g.handler.HandleSpawn(r.Context(), req)
			if err := conn.writeJSON(resp); err != nil {
				g.logger.Warn("spawn response write failed", "request_id", resp.RequestID, "error", err)
			}
		}()
	}
}

func (g *Gateway) serveKill(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.conn.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var req core.KillRequest
		if err := conn.conn.ReadJSON(&req); err != nil {
			g.logger.Debug("kill pair closed", "remote", r.RemoteAddr, "error", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := g.handler.HandleKill(r.Context(), req)
			if err := conn.writeJSON(resp); err != nil {
				g.logger.Warn("kill response write failed", "request_id", resp.RequestID, "error", err)
			}
		}()
	}
}

func (g *Gateway) serveMixed(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrade(w, r)
	if err != nil {
		return
	}
	defer conn.conn.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		var req core.Request
		if err := conn.conn.ReadJSON(&req); err != nil {
			g.logger.Debug("mixed pair closed", "remote", r.RemoteAddr, "error", err)
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := g.handler.Dispatch(r.Context(), req)
			if err := conn.writeJSON(resp); err != nil {
				g.logger.Warn("mixed response write failed", "request_id", resp.ID(), "error", err)
			}
		}()
	}
}

func (g *Gateway) upgrade(w http.ResponseWriter, r *http.Request) (*wsConn, error) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return nil, err
	}
	conn.SetReadLimit(g.readLimit)
	return &wsConn{conn: conn}, nil
}
