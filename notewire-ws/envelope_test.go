package notewirews

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestBroadcastRequestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := BroadcastRequest{Type: "comment.created", Data: json.RawMessage(`{"id":"1"}`)}.Validate()
		assert.NoError(t, err)
	})

	t.Run("missing type", func(t *testing.T) {
		err := BroadcastRequest{Data: json.RawMessage(`{}`)}.Validate()
		assert.Error(t, err)
	})

	t.Run("missing data", func(t *testing.T) {
		err := BroadcastRequest{Type: "comment.created"}.Validate()
		assert.Error(t, err)
	})

	t.Run("null data", func(t *testing.T) {
		err := BroadcastRequest{Type: "comment.created", Data: json.RawMessage(`null`)}.Validate()
		assert.Error(t, err)
	})
}

func TestNewEnvelope(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		envelope := NewEnvelope(BroadcastRequest{Type: "test", Data: json.RawMessage(`{"x":1}`)})
		assert.Equal(t, "test", envelope.Type)
		assert.Equal(t, DefaultSource, envelope.Source)
		assert.NotEmpty(t, envelope.ID)

		parsed, err := time.Parse(time.RFC3339, envelope.Timestamp)
		assert.NoError(t, err)
		assert.WithinDuration(t, time.Now(), parsed, time.Minute)
	})

	t.Run("fresh id per envelope", func(t *testing.T) {
		req := BroadcastRequest{Type: "test", Data: json.RawMessage(`{}`)}
		a := NewEnvelope(req)
		b := NewEnvelope(req)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("caller id and source pass through", func(t *testing.T) {
		envelope := NewEnvelope(BroadcastRequest{
			Type:   "test",
			Data:   json.RawMessage(`{}`),
			ID:     "trace-1",
			Source: "crud-service",
			Meta:   json.RawMessage(`{"tenant":"a"}`),
		})
		assert.Equal(t, "trace-1", envelope.ID)
		assert.Equal(t, "crud-service", envelope.Source)
		assert.JSONEq(t, `{"tenant":"a"}`, string(envelope.Meta))
	})
}

func TestEchoEnvelope(t *testing.T) {
	t.Run("wraps payload and connection id", func(t *testing.T) {
		envelope := EchoEnvelope("c9", json.RawMessage(`{"hello":"world"}`))
		assert.Equal(t, MsgEcho, envelope.Type)
		assert.JSONEq(t, `{"connectionId":"c9","message":{"hello":"world"}}`, string(envelope.Data))
	})

	t.Run("empty payload becomes empty object", func(t *testing.T) {
		envelope := EchoEnvelope("c9", nil)
		assert.JSONEq(t, `{"connectionId":"c9","message":{}}`, string(envelope.Data))
	})
}
