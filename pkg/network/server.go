// pkg/network/server.go
package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polyball/polyball/pkg/boundary"
	"github.com/polyball/polyball/pkg/config"
	"github.com/polyball/polyball/pkg/engine"
	"github.com/polyball/polyball/pkg/logging"
	"github.com/polyball/polyball/pkg/validation"
)

// tickInterval is the fixed cadence of the simulation loop. Snapshots go
// out at the configured update rate, which may be slower.
const tickInterval = time.Second / 60

// maxTickDelta caps the measured timestep handed to the core so a stalled
// scheduler or paused process cannot make the ball tunnel through a wall.
const maxTickDelta = 0.1

// Server drives the simulation loop and serves state snapshots to TCP
// clients while accepting launch and shape-change commands from them.
type Server struct {
	listener    net.Listener
	sim         *engine.Simulation
	netConfig   config.NetworkConfig
	maxSides    int
	clients     map[string]*serverClient
	clientsLock sync.RWMutex
	validator   *validation.MessageValidator
	logger      *logging.Logger
	running     bool
	runningLock sync.Mutex
	done        chan struct{}
}

// serverClient represents one connected viewer/controller.
type serverClient struct {
	id        string
	conn      net.Conn
	writeLock sync.Mutex
}

// NewServer creates a server for the given simulation session.
func NewServer(sim *engine.Simulation, cfg *config.Config) *Server {
	return &Server{
		sim:       sim,
		netConfig: cfg.Network,
		maxSides:  cfg.Simulation.MaxSides,
		clients:   make(map[string]*serverClient),
		validator: validation.NewMessageValidator(),
		logger:    logging.NewLogger(),
		done:      make(chan struct{}),
	}
}

// Start begins listening, the simulation loop, and the broadcast loop.
func (s *Server) Start(address string) error {
	s.runningLock.Lock()
	defer s.runningLock.Unlock()
	if s.running {
		return fmt.Errorf("server already running")
	}

	var err error
	s.listener, err = net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.running = true

	go s.acceptConnections()
	go s.simulationLoop()
	go s.broadcastLoop()

	s.logger.Info(context.Background(), "server started",
		"address", address,
		"update_rate", s.netConfig.UpdateRate,
		"max_clients", s.netConfig.MaxClients,
	)
	return nil
}

// Stop closes the listener and all client connections and halts the loops.
func (s *Server) Stop() {
	s.runningLock.Lock()
	defer s.runningLock.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.done)

	s.clientsLock.Lock()
	for _, client := range s.clients {
		client.conn.Close()
	}
	s.clients = make(map[string]*serverClient)
	s.clientsLock.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.validator.Close()

	s.logger.Info(context.Background(), "server stopped")
}

// isRunning reports whether Stop has been called.
func (s *Server) isRunning() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// simulationLoop advances the session at a fixed cadence using measured
// elapsed time, clamped before it reaches the core.
func (s *Server) simulationLoop() {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if dt < 0 {
				dt = 0
			}
			if dt > maxTickDelta {
				dt = maxTickDelta
			}
			s.sim.Tick(dt)
		}
	}
}

// broadcastLoop sends a state snapshot to every client at the configured
// update rate. The snapshot is marshaled once per frame.
func (s *Server) broadcastLoop() {
	interval := time.Second / time.Duration(s.netConfig.UpdateRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.broadcastSnapshot()
		}
	}
}

// Snapshot builds the current broadcast frame.
func (s *Server) Snapshot() *StateSnapshot {
	sides := s.sim.SideCount()
	return &StateSnapshot{
		Tick:     s.sim.CurrentTick(),
		Ball:     s.sim.BallState(),
		Edges:    s.sim.BoundaryEdges(),
		Sides:    sides,
		Shape:    boundary.ShapeName(sides),
		Rotation: s.sim.Rotation(),
	}
}

func (s *Server) broadcastSnapshot() {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		s.logger.Error(context.Background(), "failed to marshal snapshot", err)
		return
	}

	s.clientsLock.RLock()
	clients := make([]*serverClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsLock.RUnlock()

	for _, client := range clients {
		if err := client.send(StateUpdate, data); err != nil {
			s.removeClient(client, err)
		}
	}
}

// send writes a pre-encoded frame under the client's write lock.
func (c *serverClient) send(msgType MessageType, data []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	return writeRawFrame(c.conn, msgType, data)
}

// sendPayload marshals and writes a frame under the client's write lock.
func (c *serverClient) sendPayload(msgType MessageType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.send(msgType, data)
}

// acceptConnections accepts new client connections until the server stops.
func (s *Server) acceptConnections() {
	for s.isRunning() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isRunning() {
				s.logger.Warn(context.Background(), "error accepting connection", "error", err.Error())
			}
			continue
		}

		s.clientsLock.RLock()
		clientCount := len(s.clients)
		s.clientsLock.RUnlock()

		if clientCount >= s.netConfig.MaxClients {
			s.logger.Warn(context.Background(), "rejecting connection, server full",
				"max_clients", s.netConfig.MaxClients)
			writeFrame(conn, ConnectResponse, &ConnectResponsePayload{
				Success: false,
				Error:   "server full",
			})
			conn.Close()
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection performs the handshake and then serves the client's
// command stream until it disconnects.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	ctx := logging.WithCorrelationID(context.Background(), "")

	client, err := s.performHandshake(conn)
	if err != nil {
		s.logger.Warn(ctx, "handshake failed", "error", err.Error())
		return
	}

	s.logger.Info(ctx, "client connected",
		"client_id", client.id,
		"remote", conn.RemoteAddr().String(),
	)

	s.commandLoop(ctx, client)
}

// performHandshake reads the connect request and registers the client.
func (s *Server) performHandshake(conn net.Conn) (*serverClient, error) {
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	msgType, data, err := readFrame(conn)
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Time{})

	if msgType != ConnectRequest {
		return nil, fmt.Errorf("expected connect request, got message type %d", msgType)
	}

	var req ConnectRequestPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("malformed connect request: %w", err)
	}

	client := &serverClient{
		id:   uuid.NewString(),
		conn: conn,
	}

	// The accept loop's capacity check races with concurrent handshakes;
	// this re-check under the lock is the authoritative one.
	s.clientsLock.Lock()
	if len(s.clients) >= s.netConfig.MaxClients {
		s.clientsLock.Unlock()
		client.sendPayload(ConnectResponse, &ConnectResponsePayload{
			Success: false,
			Error:   "server full",
		})
		return nil, fmt.Errorf("server full: %d clients", s.netConfig.MaxClients)
	}
	s.clients[client.id] = client
	s.clientsLock.Unlock()

	if err := client.sendPayload(ConnectResponse, &ConnectResponsePayload{
		Success:  true,
		ClientID: client.id,
		Snapshot: s.Snapshot(),
	}); err != nil {
		s.removeClient(client, err)
		return nil, err
	}

	return client, nil
}

// commandLoop reads and applies client commands until the connection dies.
func (s *Server) commandLoop(ctx context.Context, client *serverClient) {
	for s.isRunning() {
		msgType, data, err := readFrame(client.conn)
		if err != nil {
			s.removeClient(client, err)
			return
		}

		if err := s.validator.ValidateMessage(data, client.id); err != nil {
			s.logger.Warn(ctx, "rejected client message",
				"client_id", client.id,
				"error", err.Error(),
			)
			client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: err.Error()})
			continue
		}

		switch msgType {
		case LaunchCommand:
			s.handleLaunch(ctx, client, data)
		case SetShapeCommand:
			s.handleSetShape(ctx, client, data)
		case PingRequest:
			client.send(PingResponse, data)
		case DisconnectNotification:
			s.removeClient(client, nil)
			return
		default:
			client.sendPayload(CommandAck, &CommandAckPayload{
				OK:    false,
				Error: fmt.Sprintf("unknown command type %d", msgType),
			})
		}
	}
}

func (s *Server) handleLaunch(ctx context.Context, client *serverClient, data []byte) {
	var payload LaunchPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: "malformed launch command"})
		return
	}

	if err := validation.ValidateAimPoint(payload.Aim); err != nil {
		client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: err.Error()})
		return
	}

	launched := s.sim.Launch(payload.Aim)
	if launched {
		s.logger.Info(ctx, "ball launched",
			"client_id", client.id,
			"aim_x", payload.Aim.X,
			"aim_y", payload.Aim.Y,
		)
	}
	// A launch while already launched is a harmless no-op, not an error.
	client.sendPayload(CommandAck, &CommandAckPayload{OK: true})
}

func (s *Server) handleSetShape(ctx context.Context, client *serverClient, data []byte) {
	var payload SetShapePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: "malformed shape command"})
		return
	}

	if err := validation.ValidateSideCount(payload.Sides, s.maxSides); err != nil {
		client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: err.Error()})
		return
	}

	if err := s.sim.SetBoundarySides(payload.Sides); err != nil {
		client.sendPayload(CommandAck, &CommandAckPayload{OK: false, Error: err.Error()})
		return
	}

	s.logger.Info(ctx, "boundary shape changed",
		"client_id", client.id,
		"sides", payload.Sides,
	)
	client.sendPayload(CommandAck, &CommandAckPayload{OK: true})
}

// removeClient drops a client from the registry and closes its connection.
func (s *Server) removeClient(client *serverClient, cause error) {
	s.clientsLock.Lock()
	_, present := s.clients[client.id]
	delete(s.clients, client.id)
	s.clientsLock.Unlock()

	client.conn.Close()

	if present {
		args := []any{"client_id", client.id}
		if cause != nil {
			args = append(args, "cause", cause.Error())
		}
		s.logger.Info(context.Background(), "client disconnected", args...)
	}
}

// Addr returns the listener address, useful when listening on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsLock.RLock()
	defer s.clientsLock.RUnlock()
	return len(s.clients)
}
