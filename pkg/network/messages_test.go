// pkg/network/messages_test.go
package network

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/polyball/polyball/pkg/engine"
	"github.com/polyball/polyball/pkg/physics"
)

func TestFrameRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	payload := &LaunchPayload{Aim: physics.Vector2D{X: 650, Y: 320}}

	errs := make(chan error, 1)
	go func() {
		errs <- writeFrame(client, LaunchCommand, payload)
	}()

	msgType, data, err := readFrame(server)
	if err != nil {
		t.Fatalf("readFrame() failed: %v", err)
	}
	if err := <-errs; err != nil {
		t.Fatalf("writeFrame() failed: %v", err)
	}

	if msgType != LaunchCommand {
		t.Errorf("message type = %d, expected LaunchCommand", msgType)
	}

	var decoded LaunchPayload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded.Aim != payload.Aim {
		t.Errorf("aim = %v, expected %v", decoded.Aim, payload.Aim)
	}
}

func TestReadFrame_RejectsOversizedFrame(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	// Hand-build a header claiming a body larger than the frame limit
	go func() {
		header := []byte{
			byte(LaunchCommand),
			0x00, 0x10, 0x00, 0x01, // 1 MiB + 1
		}
		client.Write(header)
	}()

	if _, _, err := readFrame(server); err == nil {
		t.Error("readFrame() accepted a frame above the size limit")
	}
}

func TestReadFrame_TruncatedStream(t *testing.T) {
	server, client := net.Pipe()

	go func() {
		// type + length promising 100 bytes, then hang up after 3
		client.Write([]byte{byte(StateUpdate), 0x00, 0x00, 0x00, 0x64, 0x01, 0x02, 0x03})
		client.Close()
	}()

	if _, _, err := readFrame(server); err == nil {
		t.Error("readFrame() accepted a truncated frame")
	}
	server.Close()
}

func TestStateSnapshot_JSONShape(t *testing.T) {
	snapshot := &StateSnapshot{
		Tick: 42,
		Ball: engine.BallState{
			Position: physics.Vector2D{X: 400, Y: 320},
			Radius:   10,
			Launched: true,
		},
		Edges: []physics.Edge{
			{A: physics.Vector2D{X: 0, Y: 0}, B: physics.Vector2D{X: 10, Y: 0}},
		},
		Sides: 4,
		Shape: "Square",
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded StateSnapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Tick != 42 || decoded.Shape != "Square" || len(decoded.Edges) != 1 {
		t.Errorf("snapshot did not survive the wire: %+v", decoded)
	}
	if !decoded.Ball.Launched || decoded.Ball.Position.X != 400 {
		t.Errorf("ball state did not survive the wire: %+v", decoded.Ball)
	}
}
