// pkg/network/client.go
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/polyball/polyball/pkg/logging"
	"github.com/polyball/polyball/pkg/physics"
)

// ErrNotConnected is returned when a command is sent before Connect
// succeeds or after the connection has dropped.
var ErrNotConnected = errors.New("not connected to server")

// Client is a viewer/controller connection to a simulation server. It
// receives state snapshots on a channel and sends launch and shape
// commands. Connection attempts run through a circuit breaker so a dead
// server fails fast instead of hanging every caller.
type Client struct {
	conn           net.Conn
	clientID       string
	serverAddress  string
	connected      bool
	mu             sync.Mutex
	snapshots      chan *StateSnapshot
	acks           chan *CommandAckPayload
	cmdMu          sync.Mutex
	breaker        *BreakerService
	logger         *logging.Logger
	connectTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a client. Connect must be called before any command.
func NewClient() *Client {
	return &Client{
		snapshots:      make(chan *StateSnapshot, 10),
		acks:           make(chan *CommandAckPayload, 4),
		breaker:        NewBreakerService(),
		logger:         logging.NewLogger(),
		connectTimeout: 10 * time.Second,
	}
}

// Connect dials the server and performs the handshake, guarded by the
// circuit breaker with retries.
func (c *Client) Connect(address, clientName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return fmt.Errorf("already connected to %s", c.serverAddress)
	}

	c.serverAddress = address
	c.ctx, c.cancel = context.WithCancel(context.Background())

	err := c.breaker.ExecuteWithRetry(c.ctx, func() error {
		return c.dialAndHandshake(address, clientName)
	})
	if err != nil {
		return logging.WrapError(err, "failed to connect to %s", address)
	}

	c.connected = true
	go c.messageLoop()

	c.logger.Info(c.ctx, "connected to server",
		"address", address,
		"client_id", c.clientID,
	)
	return nil
}

// dialAndHandshake performs one connection attempt.
func (c *Client) dialAndHandshake(address, clientName string) error {
	conn, err := net.DialTimeout("tcp", address, c.connectTimeout)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	if err := writeFrame(conn, ConnectRequest, &ConnectRequestPayload{ClientName: clientName}); err != nil {
		conn.Close()
		return err
	}

	conn.SetReadDeadline(time.Now().Add(c.connectTimeout))
	msgType, data, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return err
	}
	conn.SetReadDeadline(time.Time{})

	if msgType != ConnectResponse {
		conn.Close()
		return fmt.Errorf("expected connect response, got message type %d", msgType)
	}

	var resp ConnectResponsePayload
	if err := json.Unmarshal(data, &resp); err != nil {
		conn.Close()
		return fmt.Errorf("malformed connect response: %w", err)
	}
	if !resp.Success {
		conn.Close()
		return fmt.Errorf("server rejected connection: %s", resp.Error)
	}

	c.conn = conn
	c.clientID = resp.ClientID
	if resp.Snapshot != nil {
		select {
		case c.snapshots <- resp.Snapshot:
		default:
		}
	}
	return nil
}

// Disconnect notifies the server and tears down the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}

	writeFrame(c.conn, DisconnectNotification, struct{}{})
	c.cancel()
	err := c.conn.Close()
	c.connected = false
	c.logger.Info(context.Background(), "disconnected from server", "address", c.serverAddress)
	return err
}

// Snapshots returns the channel of received state snapshots. The channel
// drops frames when the consumer falls behind; only the freshest state
// matters for rendering.
func (c *Client) Snapshots() <-chan *StateSnapshot {
	return c.snapshots
}

// Launch asks the server to launch the ball toward the given aim point.
func (c *Client) Launch(aim physics.Vector2D) error {
	return c.sendCommand(LaunchCommand, &LaunchPayload{Aim: aim})
}

// SetShape asks the server to rebuild the boundary with n sides.
func (c *Client) SetShape(sides int) error {
	return c.sendCommand(SetShapeCommand, &SetShapePayload{Sides: sides})
}

// sendCommand writes a command frame and waits for the server's ack.
// Commands are serialized under cmdMu; the ack stream carries no
// sequence numbers, so each in-flight command must own the next ack.
func (c *Client) sendCommand(msgType MessageType, payload interface{}) error {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	// Discard any ack left behind by a command that timed out
	for len(c.acks) > 0 {
		<-c.acks
	}

	if err := writeFrame(conn, msgType, payload); err != nil {
		return err
	}

	select {
	case ack := <-c.acks:
		if !ack.OK {
			return fmt.Errorf("command rejected: %s", ack.Error)
		}
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timed out waiting for command ack")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}
}

// messageLoop dispatches incoming frames until the connection drops.
func (c *Client) messageLoop() {
	for {
		msgType, data, err := readFrame(c.conn)
		if err != nil {
			c.handleDisconnect(err)
			return
		}

		switch msgType {
		case StateUpdate:
			c.handleStateUpdate(data)
		case CommandAck:
			c.handleCommandAck(data)
		case PingResponse:
			// latency tracking hook, nothing to do yet
		default:
			c.logger.Debug(c.ctx, "ignoring unexpected message", "type", int(msgType))
		}
	}
}

func (c *Client) handleStateUpdate(data []byte) {
	var snapshot StateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		c.logger.Warn(c.ctx, "malformed state update", "error", err.Error())
		return
	}

	select {
	case c.snapshots <- &snapshot:
	default:
		// consumer is behind, drop the frame
	}
}

func (c *Client) handleCommandAck(data []byte) {
	var ack CommandAckPayload
	if err := json.Unmarshal(data, &ack); err != nil {
		c.logger.Warn(c.ctx, "malformed command ack", "error", err.Error())
		return
	}

	select {
	case c.acks <- &ack:
	default:
	}
}

func (c *Client) handleDisconnect(err error) {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.logger.Warn(context.Background(), "connection lost",
			"address", c.serverAddress,
			"error", err.Error(),
		)
		c.cancel()
	}
}
