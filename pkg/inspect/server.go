package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumen-dev/lumen/pkg/reactive"
)

// ServerConfig configures the inspector server.
type ServerConfig struct {
	// Observables is the registry served under /api/values. Optional.
	Observables *Registry

	// MetricsHandler serves /metrics. Default: promhttp.Handler().
	MetricsHandler http.Handler

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: same-origin only (the gorilla default).
	CheckOrigin func(*http.Request) bool

	// SendBuffer is the per-client outbound queue length. A client that
	// falls this many updates behind starts missing frames rather than
	// blocking the engine. Default: 16.
	SendBuffer int

	// Logger receives connection lifecycle events. Default: slog.Default().
	Logger *slog.Logger
}

// ServerOption configures the inspector server.
type ServerOption func(*ServerConfig)

// WithObservables sets the registry served under /api/values.
func WithObservables(reg *Registry) ServerOption {
	return func(c *ServerConfig) {
		c.Observables = reg
	}
}

// WithMetricsHandler overrides the handler mounted at /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsHandler = h
	}
}

// WithCheckOrigin sets the WebSocket origin check.
func WithCheckOrigin(fn func(*http.Request) bool) ServerOption {
	return func(c *ServerConfig) {
		c.CheckOrigin = fn
	}
}

// WithSendBuffer sets the per-client outbound queue length.
func WithSendBuffer(n int) ServerOption {
	return func(c *ServerConfig) {
		if n > 0 {
			c.SendBuffer = n
		}
	}
}

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *ServerConfig) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// Server is the HTTP inspector for a reactive runtime. It implements
// reactive.Hook: after each flush it captures the graph snapshot and
// cumulative stats on the engine goroutine, then serves them to any
// number of HTTP and WebSocket clients without ever touching the engine
// from another goroutine.
//
// Routes:
//   - GET /api/snapshot: live nodes as JSON
//   - GET /api/stats: cumulative engine counters
//   - GET /api/values: tracked observables (when a registry is attached)
//   - GET /metrics: Prometheus exposition
//   - GET /ws: pushes an Update frame after every flush
type Server struct {
	rt     *reactive.Runtime
	config ServerConfig

	upgrader websocket.Upgrader

	// mu guards the last captured state.
	mu       sync.RWMutex
	snapshot []reactive.NodeInfo
	stats    reactive.Stats

	// clientsMu guards the WebSocket client set.
	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

// Update is one WebSocket frame, pushed after every flush.
type Update struct {
	Flush reactive.FlushInfo  `json:"flush"`
	Stats reactive.Stats      `json:"stats"`
	Nodes []reactive.NodeInfo `json:"nodes"`
}

// wsClient is one connected WebSocket consumer with its outbound queue.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer creates an inspector over rt and takes an initial snapshot.
// Attach it with rt.AddHook so the snapshot follows flushes, then mount
// Handler() wherever the inspector should be reachable.
//
// Example:
//
//	srv := inspect.NewServer(rt, inspect.WithObservables(reg))
//	rt.AddHook(srv)
//	go http.ListenAndServe("localhost:6060", srv.Handler())
func NewServer(rt *reactive.Runtime, opts ...ServerOption) *Server {
	config := ServerConfig{
		MetricsHandler: promhttp.Handler(),
		SendBuffer:     16,
		Logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	s := &Server{
		rt:      rt,
		config:  config,
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: config.CheckOrigin,
		},
	}
	s.snapshot = rt.Snapshot()
	s.stats = rt.Stats()
	return s
}

// AfterFlush implements reactive.Hook. It runs on the engine goroutine:
// capturing Snapshot and Stats here is what makes the HTTP surface safe.
func (s *Server) AfterFlush(info reactive.FlushInfo) {
	snapshot := s.rt.Snapshot()
	stats := s.rt.Stats()

	s.mu.Lock()
	s.snapshot = snapshot
	s.stats = stats
	s.mu.Unlock()

	s.broadcast(Update{Flush: info, Stats: stats, Nodes: snapshot})
}

// broadcast queues an update for every connected client. A client whose
// queue is full misses this frame; the next one carries the full state
// again, so nothing is lost but intermediate history.
func (s *Server) broadcast(u Update) {
	s.clientsMu.Lock()
	n := len(s.clients)
	s.clientsMu.Unlock()
	if n == 0 {
		return
	}

	payload, err := json.Marshal(u)
	if err != nil {
		s.config.Logger.Error("inspector update encode failed", "error", err)
		return
	}

	s.clientsMu.Lock()
	for c := range s.clients {
		select {
		case c.send <- payload:
		default:
		}
	}
	s.clientsMu.Unlock()
}

// Handler returns the inspector's HTTP routes for mounting in any router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/snapshot", s.handleSnapshot)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/values", s.handleValues)
	r.Handle("/metrics", s.config.MetricsHandler)
	r.Get("/ws", s.handleWS)
	return r
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()
	writeJSON(w, snapshot)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	stats := s.stats
	s.mu.RUnlock()
	writeJSON(w, stats)
}

func (s *Server) handleValues(w http.ResponseWriter, _ *http.Request) {
	if s.config.Observables == nil {
		http.Error(w, "no observable registry attached", http.StatusNotFound)
		return
	}
	writeJSON(w, s.config.Observables.Values())
}

// handleWS upgrades the connection and streams Update frames. Each client
// gets a dedicated writer goroutine fed from a buffered queue, so a slow
// consumer can never stall the engine or other clients.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Error("inspector websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, s.config.SendBuffer),
	}
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
	s.config.Logger.Debug("inspector client connected", "remote", conn.RemoteAddr())

	go s.writeLoop(c)
	go s.readLoop(c)
}

func (s *Server) writeLoop(c *wsClient) {
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
}

// readLoop drains inbound frames to detect disconnects. The inspector
// protocol is one-way; anything the client sends is discarded.
func (s *Server) readLoop(c *wsClient) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.config.Logger.Debug("inspector client read error", "error", err)
			}
			return
		}
	}
}

// drop unregisters a client and releases its writer.
func (s *Server) drop(c *wsClient) {
	s.clientsMu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.clientsMu.Unlock()
	c.conn.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
