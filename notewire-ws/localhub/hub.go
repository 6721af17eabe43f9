// Package localhub serves real WebSocket connections in-process for console
// mode, standing in for API Gateway. It feeds the same lifecycle handler the
// deployed transport would invoke and implements the pusher over live
// gorilla connections, so the full connect/broadcast/disconnect path can be
// exercised locally.
package localhub

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	notewirews "github.com/notewire/notewire-realtime/notewire-ws"
)

const (
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local development only; any origin may connect.
		return true
	},
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks live local connections and routes their lifecycle through the
// WebSocket handler.
type Hub struct {
	Handler *notewirews.Handler
	Logger  zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

func New(logger zerolog.Logger) *Hub {
	return &Hub{
		Logger:  logger,
		clients: make(map[string]*client),
	}
}

// Push implements notewirews.Pusher over the hub's live connections. An
// unknown connection id reports gone, matching the managed transport's 410.
func (h *Hub) Push(ctx context.Context, connectionID string, data []byte) (notewirews.PushStatus, error) {
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return notewirews.PushGone, fmt.Errorf("connection %v is gone", connectionID)
	}
	if err := c.write(data); err != nil {
		return notewirews.PushTransientFailure, fmt.Errorf("writing to connection %v: %w", connectionID, err)
	}
	return notewirews.PushDelivered, nil
}

// ServeHTTP upgrades the request and drives the lifecycle routes for the
// connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	h.mu.Lock()
	h.clients[connID] = &client{conn: conn}
	h.mu.Unlock()

	ctx := req.Context()
	if resp, _ := h.Handler.HandleEvent(ctx, routeEvent(connID, "$connect", "")); resp.StatusCode != 200 {
		h.drop(connID, conn)
		return
	}

	done := make(chan struct{})
	go h.pingLoop(conn, done)

	defer func() {
		close(done)
		h.drop(connID, conn)
		h.Handler.HandleEvent(context.Background(), routeEvent(connID, "$disconnect", ""))
	}()

	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		if _, err := h.Handler.HandleEvent(ctx, routeEvent(connID, "$default", string(body))); err != nil {
			h.Logger.Warn().Err(err).Str("connection_id", connID).Msg("message handling failed")
		}
	}
}

func (h *Hub) pingLoop(conn *websocket.Conn, done chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) drop(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, connID)
	h.mu.Unlock()
	conn.Close()
}

func routeEvent(connID, routeKey, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			ConnectionID: connID,
			RouteKey:     routeKey,
		},
	}
}
