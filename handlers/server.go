package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"tilefield/server/messages"
	"tilefield/server/network"
	"tilefield/server/services"
)

// Server exposes the tile services over HTTP and WebSocket
type Server struct {
	playerService *services.PlayerService
	worldService  *services.WorldService
	clientManager *ClientManager
	validator     *messages.Validator
	opts          Options

	upgrader websocket.Upgrader

	mu       sync.Mutex
	closing  bool
	conns    map[*network.Connection]struct{}
	sessions sync.WaitGroup
}

// StatsResponse is served on /stats
type StatsResponse struct {
	Clients int                   `json:"clients"`
	Players int                   `json:"players"`
	Worlds  []services.WorldStats `json:"worlds"`
}

// NewServer compiles the message schemas and wires the services together
func NewServer(playerService *services.PlayerService, worldService *services.WorldService, opts Options) (*Server, error) {
	validator, err := messages.NewValidator()
	if err != nil {
		return nil, err
	}
	return &Server{
		playerService: playerService,
		worldService:  worldService,
		clientManager: NewClientManager(),
		validator:     validator,
		opts:          opts,
		conns:         make(map[*network.Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			// Allow connections from any origin during development
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}, nil
}

// Routes returns the server's HTTP handlers
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/stats", s.serveStats)
	return mux
}

// Shutdown stops accepting sessions, tells logged-in clients the server is
// going away, disconnects everyone and waits for each session's cleanup to
// finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context, reason string) error {
	s.mu.Lock()
	s.closing = true
	conns := make([]*network.Connection, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	s.clientManager.CloseAll(reason)
	for _, conn := range conns {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.sessions.Add(1)
	s.mu.Unlock()
	defer s.sessions.Done()

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}
	defer ws.Close()

	conn := network.NewConnection(ws)
	s.track(conn)
	defer s.untrack(conn)

	HandleClientConnection(conn, s.playerService, s.worldService, s.clientManager, s.validator, s.opts)
}

func (s *Server) track(conn *network.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
	if s.closing {
		conn.Close()
	}
}

func (s *Server) untrack(conn *network.Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{
		Clients: s.clientManager.Count(),
		Players: s.worldService.PlayerCount(),
		Worlds:  s.worldService.Stats(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error writing stats: %v", err)
	}
}
