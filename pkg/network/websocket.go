// pkg/network/websocket.go
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/polyball/polyball/pkg/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream is read-only state data, cross-origin viewers are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHub streams state snapshots to browser renderers. It is a
// one-way broadcast: incoming websocket messages are drained and ignored,
// commands go through the TCP protocol.
type WebSocketHub struct {
	server  *Server
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.Mutex
	logger  *logging.Logger
	http    *http.Server
}

// NewWebSocketHub creates a hub that snapshots from the given server.
func NewWebSocketHub(server *Server) *WebSocketHub {
	return &WebSocketHub{
		server:  server,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  logging.NewLogger(),
	}
}

// Start serves the /ws endpoint and broadcasts snapshots at the server's
// update rate until the context is canceled.
func (h *WebSocketHub) Start(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)

	h.http = &http.Server{Addr: address, Handler: mux}

	go h.broadcastLoop(ctx)
	go func() {
		<-ctx.Done()
		h.shutdown()
	}()

	h.logger.Info(ctx, "websocket hub started", "address", address)
	if err := h.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *WebSocketHub) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h.http.Shutdown(shutdownCtx)

	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
	}
	h.clients = make(map[*websocket.Conn]*sync.Mutex)
	h.mu.Unlock()
}

func (h *WebSocketHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	h.logger.Info(r.Context(), "websocket viewer connected",
		"remote", conn.RemoteAddr().String(),
	)

	// Drain reads so pings and close frames are processed; drop the
	// client when the read loop errors out.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.removeClient(conn)
				return
			}
		}
	}()
}

func (h *WebSocketHub) removeClient(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// broadcastLoop pushes snapshots to every viewer at the update rate.
func (h *WebSocketHub) broadcastLoop(ctx context.Context) {
	interval := time.Second / time.Duration(h.server.netConfig.UpdateRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.broadcast()
		}
	}
}

func (h *WebSocketHub) broadcast() {
	data, err := json.Marshal(h.server.Snapshot())
	if err != nil {
		h.logger.Error(context.Background(), "failed to marshal snapshot", err)
		return
	}

	h.mu.Lock()
	conns := make(map[*websocket.Conn]*sync.Mutex, len(h.clients))
	for conn, lock := range h.clients {
		conns[conn] = lock
	}
	h.mu.Unlock()

	for conn, lock := range conns {
		lock.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		lock.Unlock()
		if err != nil {
			h.removeClient(conn)
		}
	}
}

// ViewerCount returns the number of connected websocket viewers.
func (h *WebSocketHub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
