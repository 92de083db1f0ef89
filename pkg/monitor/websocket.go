package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"digital.vasic.expectations/pkg/logging"
)

const (
	defaultQueueSize = 64
	writeWait        = 5 * time.Second
)

// Message is the envelope written to websocket clients. The first
// message on a connection carries the dashboard; every later one
// carries a single event.
type Message struct {
	Type      string             `json:"type"` // dashboard, event
	Dashboard *DashboardSnapshot `json:"dashboard,omitempty"`
	Event     *Event             `json:"event,omitempty"`
}

type client struct {
	send chan []byte
}

// Server streams run events to websocket clients at /events and
// serves the current state at /stats and /dashboard.
type Server struct {
	addr      string
	collector *EventCollector
	dashboard *Dashboard
	logger    logging.Logger
	upgrader  websocket.Upgrader
	queueSize int

	mu      sync.Mutex
	clients map[*client]struct{}
	server  *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the logger for connection events.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithQueueSize sets how many events may be queued for a client
// before it is considered too slow and disconnected.
func WithQueueSize(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// NewServer creates a monitoring server and subscribes it to
// collector. Every collected event updates dashboard and is
// broadcast to connected clients.
func NewServer(
	addr string,
	collector *EventCollector,
	dashboard *Dashboard,
	opts ...ServerOption,
) *Server {
	s := &Server{
		addr:      addr,
		collector: collector,
		dashboard: dashboard,
		logger:    logging.NullLogger{},
		queueSize: defaultQueueSize,
		clients:   make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	collector.OnEvent(func(event Event) {
		s.dashboard.UpdateFromEvent(event)
		data, err := json.Marshal(Message{Type: "event", Event: &event})
		if err != nil {
			s.logger.Warn("monitor_encode_failed", logging.ErrorField(err))
			return
		}
		s.broadcast(data)
	})
	return s
}

// Handler returns the HTTP handler serving all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("monitor server: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled or Stop is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Stop(context.Background())
	}()

	s.logger.Info("monitor_listening",
		logging.StringField("addr", ln.Addr().String()))
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitor server: %w", err)
	}
	return nil
}

// Stop disconnects all clients and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()

	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("monitor_upgrade_failed", logging.ErrorField(err))
		return
	}
	defer conn.Close()

	c := &client{send: make(chan []byte, s.queueSize)}
	s.addClient(c)
	defer s.removeClient(c)

	snap := s.dashboard.Snapshot()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: "dashboard", Dashboard: &snap}); err != nil {
		return
	}

	// Reads are only needed to process control frames and to
	// notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case data, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
					s.logger.Warn("monitor_send_failed", logging.ErrorField(err))
				}
				return
			}
		}
	}
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.collector.Stats())
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.dashboard.Snapshot())
}

func (s *Server) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// broadcast queues data for every client. A client whose queue is
// full is disconnected.
func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			delete(s.clients, c)
			close(c.send)
			s.logger.Warn("monitor_client_dropped",
				logging.IntField("queue_size", s.queueSize))
		}
	}
}
