package notewirews

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"
	"github.com/tj/assert"
)

func wsEvent(connID, routeKey, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			ConnectionID: connID,
			RouteKey:     routeKey,
		},
	}
}

func TestHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("connect stores a record with ttl", func(t *testing.T) {
		store := newFakeStore()
		h := &Handler{Connections: store, Pusher: newFakePusher(nil), Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("c1", "$connect", ""))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, resp.Body, "Connected")

		conn := store.conns["c1"]
		assert.Equal(t, "c1", conn.ConnectionID)
		assert.InDelta(t, time.Now().Unix(), conn.ConnectedAt, 5)
		assert.InDelta(t, time.Now().Add(DefaultConnectionTTL).Unix(), conn.TTL, 5)
	})

	t.Run("connect is visible to the next broadcast", func(t *testing.T) {
		store := newFakeStore()
		pusher := newFakePusher(nil)
		h := &Handler{Connections: store, Pusher: pusher, Logger: zerolog.Nop()}

		_, err := h.HandleEvent(ctx, wsEvent("c1", "$connect", ""))
		assert.NoError(t, err)

		stats, err := broadcaster(store, pusher).Broadcast(ctx, BroadcastRequest{
			Type: "test",
			Data: json.RawMessage(`{}`),
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, stats.Sent)
		assert.Len(t, pusher.pushed["c1"], 1)
	})

	t.Run("connect without connection id", func(t *testing.T) {
		store := newFakeStore()
		h := &Handler{Connections: store, Pusher: newFakePusher(nil), Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("", "$connect", ""))
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Len(t, store.conns, 0)
	})

	t.Run("disconnect is idempotent", func(t *testing.T) {
		store := newFakeStore("c1")
		h := &Handler{Connections: store, Pusher: newFakePusher(nil), Logger: zerolog.Nop()}

		for i := 0; i < 2; i++ {
			resp, err := h.HandleEvent(ctx, wsEvent("c1", "$disconnect", ""))
			assert.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		}
		assert.False(t, store.has("c1"))
	})

	t.Run("default echoes the payload", func(t *testing.T) {
		store := newFakeStore("c9")
		pusher := newFakePusher(nil)
		h := &Handler{Connections: store, Pusher: pusher, Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("c9", "$default", `{"hello":"world"}`))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, resp.Body, "Message processed")

		assert.Len(t, pusher.pushed["c9"], 1)
		var envelope Envelope
		assert.NoError(t, json.Unmarshal(pusher.pushed["c9"][0], &envelope))
		assert.Equal(t, MsgEcho, envelope.Type)
		assert.JSONEq(t, `{"connectionId":"c9","message":{"hello":"world"}}`, string(envelope.Data))
	})

	t.Run("default tolerates a malformed body", func(t *testing.T) {
		store := newFakeStore("c9")
		pusher := newFakePusher(nil)
		h := &Handler{Connections: store, Pusher: pusher, Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("c9", "$default", "not json"))
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var envelope Envelope
		assert.NoError(t, json.Unmarshal(pusher.pushed["c9"][0], &envelope))
		assert.JSONEq(t, `{"connectionId":"c9","message":{}}`, string(envelope.Data))
	})

	t.Run("failed echo does not touch the directory", func(t *testing.T) {
		store := newFakeStore("c9")
		pusher := newFakePusher(map[string]PushStatus{"c9": PushGone})
		h := &Handler{Connections: store, Pusher: pusher, Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("c9", "$default", `{}`))
		assert.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.True(t, store.has("c9"))
	})

	t.Run("unknown route", func(t *testing.T) {
		h := &Handler{Connections: newFakeStore(), Pusher: newFakePusher(nil), Logger: zerolog.Nop()}

		resp, err := h.HandleEvent(ctx, wsEvent("c1", "$bogus", ""))
		assert.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}
