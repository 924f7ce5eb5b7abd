package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/hackjack/internal/engine"
	"github.com/lox/hackjack/internal/entropy"
)

// Server exposes the game engine over WebSocket for players and over a
// plain HTTP callback for the randomness oracle.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	mu          sync.RWMutex
	logger      *log.Logger
	service     *GameService
	httpServer  *http.Server
}

// NewServer creates a server around a game service
func NewServer(addr string, service *GameService, logger *log.Logger) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Clients are bots and admin tooling, not browsers
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		service:     service,
	}

	// Push fulfillment-driven transitions to the owning player
	service.engine.SetNotify(func(game engine.Game) {
		msg := gameStateMessage(game)
		go s.SendToPlayer(string(game.Owner), msg)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/fulfill", s.handleFulfill)
	mux.HandleFunc("/health", s.handleHealth)
	s.httpServer = &http.Server{Addr: addr, Handler: mux}

	return s
}

// Start runs the listener until Stop is called
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the listener down and closes every connection
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// handleWebSocket upgrades a player connection
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.service)

	s.mu.Lock()
	s.connections[client] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("client connected", "total", total)

	client.Start()

	go func() {
		<-client.Done()
		s.mu.Lock()
		delete(s.connections, client)
		total := len(s.connections)
		s.mu.Unlock()
		s.logger.Info("client disconnected", "total", total)
	}()
}

// handleFulfill is the oracle's callback endpoint. A replayed or
// unknown correlation id is a conflict, not a server error.
func (s *Server) handleFulfill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req FulfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed fulfillment", http.StatusBadRequest)
		return
	}

	if err := s.service.Fulfill(req); err != nil {
		s.logger.Warn("fulfillment rejected", "request_id", req.RequestID, "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, entropy.ErrUnknownRequest) {
			status = http.StatusConflict
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// SendToPlayer sends a message to a specific player's connection
func (s *Server) SendToPlayer(player string, msg *Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.Player() == player {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Debug("failed to send to player", "player", player, "error", err)
			}
			return
		}
	}
}

// ConnectedPlayers returns the authenticated player addresses
func (s *Server) ConnectedPlayers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var players []string
	for conn := range s.connections {
		if p := conn.Player(); p != "" {
			players = append(players, p)
		}
	}
	return players
}
