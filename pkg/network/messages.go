// pkg/network/messages.go
package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/polyball/polyball/pkg/engine"
	"github.com/polyball/polyball/pkg/physics"
)

// MessageType defines the type of network message
type MessageType byte

const (
	ConnectRequest MessageType = iota
	ConnectResponse
	DisconnectNotification
	StateUpdate
	LaunchCommand
	SetShapeCommand
	CommandAck
	PingRequest
	PingResponse
)

// maxFrameSize bounds a single frame on the wire. State snapshots for a
// ten-sided boundary are well under a kilobyte.
const maxFrameSize = 64 * 1024

// ConnectRequestPayload opens a session with the server.
type ConnectRequestPayload struct {
	ClientName string `json:"clientName"`
}

// ConnectResponsePayload acknowledges a connection attempt.
type ConnectResponsePayload struct {
	Success  bool           `json:"success"`
	ClientID string         `json:"clientID,omitempty"`
	Error    string         `json:"error,omitempty"`
	Snapshot *StateSnapshot `json:"snapshot,omitempty"`
}

// StateSnapshot is one broadcast frame of simulation state: everything
// an external renderer needs to draw the session.
type StateSnapshot struct {
	Tick     uint64           `json:"tick"`
	Ball     engine.BallState `json:"ball"`
	Edges    []physics.Edge   `json:"edges"`
	Sides    int              `json:"sides"`
	Shape    string           `json:"shape"`
	Rotation float64          `json:"rotation"`
}

// LaunchPayload carries a launch request's aim point.
type LaunchPayload struct {
	Aim physics.Vector2D `json:"aim"`
}

// SetShapePayload carries a boundary shape change request.
type SetShapePayload struct {
	Sides int `json:"sides"`
}

// CommandAckPayload reports the outcome of a command.
type CommandAckPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// writeFrame writes a type byte, a big-endian length, and the JSON-encoded
// payload to the connection.
func writeFrame(conn net.Conn, msgType MessageType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return writeRawFrame(conn, msgType, data)
}

// writeRawFrame writes a pre-encoded payload.
func writeRawFrame(conn net.Conn, msgType MessageType, data []byte) error {
	if err := binary.Write(conn, binary.BigEndian, byte(msgType)); err != nil {
		return fmt.Errorf("failed to write message type: %w", err)
	}
	if err := binary.Write(conn, binary.BigEndian, uint32(len(data))); err != nil {
		return fmt.Errorf("failed to write message length: %w", err)
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	return nil
}

// readFrame reads one framed message from the connection.
func readFrame(conn net.Conn) (MessageType, []byte, error) {
	var msgType byte
	if err := binary.Read(conn, binary.BigEndian, &msgType); err != nil {
		return 0, nil, fmt.Errorf("failed to read message type: %w", err)
	}

	var msgLen uint32
	if err := binary.Read(conn, binary.BigEndian, &msgLen); err != nil {
		return 0, nil, fmt.Errorf("failed to read message length: %w", err)
	}
	if msgLen > maxFrameSize {
		return 0, nil, fmt.Errorf("frame of %d bytes exceeds limit %d", msgLen, maxFrameSize)
	}

	data := make([]byte, msgLen)
	if _, err := io.ReadFull(conn, data); err != nil {
		return 0, nil, fmt.Errorf("failed to read message body: %w", err)
	}

	return MessageType(msgType), data, nil
}
