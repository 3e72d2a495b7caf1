package vapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// MonitorEvent is one realtime message from a call's listen websocket. Vapi
// interleaves JSON status/transcript frames with binary audio frames; only
// the JSON frames surface here.
type MonitorEvent struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Status         string `json:"status,omitempty"`
}

// ListenToCall attaches to a live call's listen URL and invokes onEvent for
// each JSON frame until the call ends or ctx is cancelled. Returns nil on a
// clean close.
func ListenToCall(ctx context.Context, listenURL string, onEvent func(MonitorEvent)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, listenURL, nil)
	if err != nil {
		return fmt.Errorf("dial listen websocket: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if msgType != websocket.TextMessage {
			// Binary frames carry call audio; the monitor has no use for them.
			continue
		}
		var ev MonitorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}
}
