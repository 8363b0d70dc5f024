// Package statusapi exposes a narrow, read-only HTTP/WebSocket view onto
// the event bus and open positions: health, recent events for a run, open
// positions, and a live event stream. It is an external interface onto the
// audit trail, not a dashboard.
package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// EventReader is the read dependency the status API queries.
type EventReader interface {
	Events(ctx context.Context, runID string) ([]types.Event, error)
}

// PositionReader is the read dependency for open positions.
type PositionReader interface {
	LoadOpenPositions(ctx context.Context) ([]types.Position, error)
}

// Config configures the status API's listen address and timeouts.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for local/operator use.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8090,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server is the read-only status HTTP/WebSocket server.
type Server struct {
	mu         sync.RWMutex
	logger     *zap.Logger
	config     Config
	router     *mux.Router
	httpServer *http.Server
	upgrader   websocket.Upgrader

	events    EventReader
	positions PositionReader

	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewServer builds a Server backed by events and positions readers.
func NewServer(logger *zap.Logger, config Config, events EventReader, positions PositionReader) *Server {
	s := &Server{
		logger:    logger.Named("statusapi"),
		config:    config,
		router:    mux.NewRouter(),
		events:    events,
		positions: positions,
		clients:   make(map[string]*client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/status/v1/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/status/v1/positions", s.handlePositions).Methods("GET")
	s.router.HandleFunc("/status/v1/events/{runId}", s.handleEvents).Methods("GET")
	s.router.HandleFunc("/status/v1/stream", s.handleStream)
}

// Start begins serving and blocks until the server stops or errors.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"*"},
	}).Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("starting status API", zap.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts the server down, closing every websocket client.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for _, c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "time": time.Now().UTC()})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.positions.LoadOpenPositions(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"positions": positions})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	evts, err := s.events.Events(r.Context(), runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"events": evts})
}

// handleStream upgrades to a websocket and registers the client so
// Broadcast can push new events to it as they happen.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, 64)}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	go s.writePump(c)
}

func (s *Server) writePump(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		c.conn.Close()
	}()

	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Broadcast pushes event to every connected status-stream client.
func (s *Server) Broadcast(event types.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.send <- payload:
		default:
			s.logger.Warn("status stream client slow, dropping event", zap.String("clientId", c.id))
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
