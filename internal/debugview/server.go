// Package debugview is the optional debug-only surface described alongside
// the core runtime: a small HTTP+WebSocket server that streams Manager
// snapshots and event-bus metrics to any number of connected observers,
// pushed whenever the bus actually delivers something rather than polled on
// a timer, without ever blocking the scheduler itself.
package debugview

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/flowecs/internal/core/ecs"
	"github.com/zeusync/flowecs/internal/core/events/bus"
	"github.com/zeusync/flowecs/internal/core/observability/log"
	"github.com/zeusync/flowecs/pkg/concurrent"
	"github.com/zeusync/flowecs/pkg/sequence"
)

// Config is the debug view's construction-time, yaml-tagged configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	// PingInterval is how often an idle connection (no bus activity to push)
	// receives a WebSocket ping, purely to detect a dead client — it carries
	// no snapshot data.
	PingInterval time.Duration `yaml:"ping_interval"`
}

// DefaultConfig returns a Config listening locally with a 30s idle ping.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   "127.0.0.1:8090",
		PingInterval: 30 * time.Second,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Server streams Manager.DebugSnapshot and EventBus metrics over WebSocket
// to every connected client. It registers itself as a bus.EventBusObserver
// so a new snapshot goes out the moment the bus delivers something, instead
// of polling Manager state on a timer. It never touches the Manager's
// mutable state beyond calling DebugSnapshot, which is itself read-only.
type Server struct {
	cfg     Config
	manager *ecs.Manager
	bus     bus.EventBus
	logger  log.Log

	httpServer *http.Server

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}

	stop chan struct{}
}

var _ bus.EventBusObserver = (*Server)(nil)

// New builds a Server. eventBus may be nil, in which case no live push
// happens at all — only whatever a caller drives manually through
// DebugSnapshot directly.
func New(cfg Config, manager *ecs.Manager, eventBus bus.EventBus, logger log.Log) *Server {
	if logger == nil {
		logger = log.New(log.LevelInfo)
	}
	return &Server{
		cfg:     cfg,
		manager: manager,
		bus:     eventBus,
		logger:  logger.With(log.String("component", "debugview")),
		clients: make(map[*websocket.Conn]struct{}),
		stop:    make(chan struct{}),
	}
}

// Start subscribes to the event bus (if any) both for the raw
// "flowpool.task.done" feed and as a metrics observer, begins the idle-ping
// loop, and starts serving HTTP in the background.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: s.cfg.ListenAddr, Handler: mux}

	if s.bus != nil {
		if _, err := s.bus.Subscribe("flowpool.task.done", s.handleTaskDone); err != nil {
			return err
		}
		s.bus.AddObserver(s)
	}

	go s.pingLoop()
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("debug view server stopped unexpectedly", log.Error(err))
		}
	}()

	s.logger.Info("debug view listening", log.String("addr", s.cfg.ListenAddr))
	return nil
}

// Stop unregisters from the event bus, closes every connected client, and
// shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	close(s.stop)

	if s.bus != nil {
		s.bus.RemoveObserver(s)
	}

	s.mu.Lock()
	for conn := range s.clients {
		_ = conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", log.Error(err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	go s.readUntilClosed(conn)
}

// readUntilClosed drains frames from a client (none are expected; this is
// a push-only feed) until the connection drops, then removes it from the
// broadcast set.
func (s *Server) readUntilClosed(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// pingLoop sends a WebSocket ping control frame to every connection on a
// fixed cadence. This is a liveness check, not a snapshot mechanism —
// snapshots are pushed from OnDelivered as the bus actually does work.
func (s *Server) pingLoop() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for c := range s.clients {
				conns = append(conns, c)
			}
			s.mu.Unlock()
			for _, conn := range conns {
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}
}

func (s *Server) broadcast(payload []byte) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	concurrent.FanOut(sequence.From(conns), func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	})
}

// snapshotEnvelope pairs a point-in-time Manager snapshot with the bus's
// accumulated delivery metrics, giving a client both "what's registered and
// outstanding" and "how much traffic has flowed" in one push.
type snapshotEnvelope struct {
	Manager ecs.DebugSnapshot   `json:"manager"`
	Bus     bus.EventBusMetrics `json:"bus"`
}

// pushSnapshot renders and broadcasts the current combined snapshot. Safe
// to call at any time; DebugSnapshot and GetMetrics are both best-effort,
// non-quiescent reads.
func (s *Server) pushSnapshot() {
	env := snapshotEnvelope{Manager: s.manager.DebugSnapshot()}
	if s.bus != nil {
		env.Bus = s.bus.GetMetrics()
	}

	payload, err := json.Marshal(env)
	if err != nil {
		s.logger.Warn("snapshot serialize failed", log.Error(err))
		return
	}
	s.broadcast(payload)
}

// OnPublish implements bus.EventBusObserver. The debug view has nothing
// useful to do before a delivery completes, so this is a no-op; the real
// work happens in OnDelivered.
func (s *Server) OnPublish(_, _ string, _ bus.Event) {}

// OnDelivered implements bus.EventBusObserver: every time the event bus
// finishes a delivery (regardless of topic or event type), push a fresh
// combined snapshot to every connected client. This replaces a fixed-period
// polling loop over Manager state with a push driven by actual activity.
func (s *Server) OnDelivered(_, _ string, _ int, _ error, _ int64) {
	s.pushSnapshot()
}

// taskDoneEnvelope is the wire shape of a forwarded flow pool event.
type taskDoneEnvelope struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Data   any    `json:"data"`
}

func (s *Server) handleTaskDone(event bus.Event) error {
	payload, err := json.Marshal(taskDoneEnvelope{
		Type:   event.Type(),
		Source: event.Source(),
		Data:   event.Data(),
	})
	if err != nil {
		return err
	}
	s.broadcast(payload)
	return nil
}
