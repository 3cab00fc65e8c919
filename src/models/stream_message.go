package models

import (
	"encoding/json"
	"fmt"
)

// -----------------------------------------------------------------------------
// Stream frame types
// -----------------------------------------------------------------------------

// Every frame on the wire is a JSON object carrying a top-level "type" field.
// Handlers discriminate on it; unknown types are ignored by all handlers.
const (
	FrameQuoteUpdate    = "quote_update"
	FrameBaselineUpdate = "baseline_update"
	FramePositionUpdate = "position_update"
	FrameOrderStatus    = "order_status"
	FrameAccountUpdate  = "account_update"
	FramePing           = "ping"
	FramePong           = "pong"

	// Emitted locally by the monitor relay, never received from upstream.
	FrameConnectionStatus = "connection_status"
)

// -----------------------------------------------------------------------------
// MStreamMessage
// -----------------------------------------------------------------------------

// MStreamMessage is the parsed envelope handed to every handler.
// Raw holds the complete original frame so each consumer can decode
// the payload into its own typed struct.
type MStreamMessage struct {
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

// -----------------------------------------------------------------------------

// ParseStreamMessage validates a raw frame and extracts the type discriminant.
func ParseStreamMessage(raw []byte) (*MStreamMessage, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("frame missing type field")
	}

	return &MStreamMessage{
		Type: envelope.Type,
		Raw:  raw,
	}, nil
}

// -----------------------------------------------------------------------------

// Decode unmarshals the full frame into the given payload struct.
func (m *MStreamMessage) Decode(v interface{}) error {
	return json.Unmarshal(m.Raw, v)
}
