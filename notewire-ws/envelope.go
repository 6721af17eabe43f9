package notewirews

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DefaultSource tags envelopes whose producer did not identify itself.
const DefaultSource = "backend"

// Event types originated by this subsystem. Domain event types (e.g.
// "comment.created") are owned by the producer and passed through verbatim.
const (
	MsgEcho = "echo"
)

// Envelope is the wire format delivered to every connected client. It is
// immutable after construction; one broadcast sends the same envelope
// verbatim to all recipients.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Source    string          `json:"source"`
	Version   string          `json:"version,omitempty"`
	Data      json.RawMessage `json:"data"`
	Meta      json.RawMessage `json:"meta,omitempty"`
}

// BroadcastRequest is the ingress contract produced by the domain service.
// Type and Data are required; everything else defaults at envelope
// construction. Data and Meta are opaque at this layer.
type BroadcastRequest struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
	Version string          `json:"version,omitempty"`
	ID      string          `json:"id,omitempty"`
	Source  string          `json:"source,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// Validate checks the request carries the required fields.
func (r BroadcastRequest) Validate() error {
	if r.Type == "" {
		return &ValidationError{Reason: "type is required"}
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return &ValidationError{Reason: "data is required"}
	}
	return nil
}

// NewEnvelope builds a wire-ready envelope from a validated request. The
// timestamp is always set fresh; a caller-supplied timestamp is never
// trusted. Omitted ids get a fresh UUID so every broadcast remains traceable
// downstream even though this subsystem does not deduplicate.
func NewEnvelope(req BroadcastRequest) Envelope {
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	source := req.Source
	if source == "" {
		source = DefaultSource
	}
	return Envelope{
		Type:      req.Type,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Source:    source,
		Version:   req.Version,
		Data:      req.Data,
		Meta:      req.Meta,
	}
}

// EchoEnvelope wraps an inbound client payload for reflection back to the
// connection that sent it.
func EchoEnvelope(connectionID string, payload json.RawMessage) Envelope {
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	data, _ := json.Marshal(struct {
		ConnectionID string          `json:"connectionId"`
		Message      json.RawMessage `json:"message"`
	}{
		ConnectionID: connectionID,
		Message:      payload,
	})
	return NewEnvelope(BroadcastRequest{
		Type: MsgEcho,
		Data: data,
	})
}
