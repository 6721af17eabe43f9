package notewirews

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

// DefaultConnectionTTL is how long a directory record survives without a
// clean disconnect before the table passively expires it.
const DefaultConnectionTTL = 24 * time.Hour

// Handler handles the API Gateway WebSocket lifecycle routes. A connection
// is "connected" exactly while its record is present in the directory; there
// is no intermediate state.
type Handler struct {
	Connections ConnectionStore
	Pusher      Pusher
	Logger      zerolog.Logger
	ConnTTL     time.Duration // TTL for connection records (default 24 hours)
}

// HandleEvent routes an API Gateway WebSocket event to the appropriate handler.
func (h *Handler) HandleEvent(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := h.Logger.With().
		Str("connection_id", req.RequestContext.ConnectionID).
		Str("route", req.RequestContext.RouteKey).
		Logger()

	switch req.RequestContext.RouteKey {
	case "$connect":
		return h.handleConnect(ctx, logger, req)
	case "$disconnect":
		return h.handleDisconnect(ctx, logger, req)
	case "$default":
		return h.handleMessage(ctx, logger, req)
	default:
		logger.Warn().Str("route", req.RequestContext.RouteKey).Msg("unknown route")
		return response(400, "Unknown route"), nil
	}
}

func (h *Handler) handleConnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connID := req.RequestContext.ConnectionID
	if connID == "" {
		logger.Warn().Msg("connect without connection id")
		return response(400, ErrMissingConnectionID.Error()), nil
	}

	ttl := h.ConnTTL
	if ttl == 0 {
		ttl = DefaultConnectionTTL
	}

	now := time.Now()
	conn := connectiondao.Connection{
		ConnectionID: connID,
		ConnectedAt:  now.Unix(),
		TTL:          now.Add(ttl).Unix(),
	}

	if err := h.Connections.Put(ctx, conn); err != nil {
		logger.Error().Err(err).Msg("failed to store connection")
		return response(500, "Failed to connect"), nil
	}

	logger.Info().Msg("connection established")
	return response(200, "Connected"), nil
}

func (h *Handler) handleDisconnect(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connID := req.RequestContext.ConnectionID
	if connID == "" {
		logger.Warn().Msg("disconnect without connection id")
		return response(400, ErrMissingConnectionID.Error()), nil
	}

	// Deleting an absent record is fine; disconnect is idempotent.
	if err := h.Connections.Delete(ctx, connID); err != nil {
		logger.Error().Err(err).Msg("failed to delete connection")
		return response(500, "Failed to disconnect"), nil
	}

	logger.Info().Msg("connection closed")
	return response(200, "Disconnected"), nil
}

func (h *Handler) handleMessage(ctx context.Context, logger zerolog.Logger, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connID := req.RequestContext.ConnectionID
	if connID == "" {
		logger.Warn().Msg("message without connection id")
		return response(400, ErrMissingConnectionID.Error()), nil
	}

	// Inbound echo traffic is non-critical; a malformed body is tolerated as
	// an empty payload rather than rejected.
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		logger.Debug().Err(err).Msg("non-JSON inbound message, echoing empty payload")
		payload = nil
	}

	envelope := EchoEnvelope(connID, payload)
	data, err := json.Marshal(envelope)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal echo envelope")
		return response(500, "Failed to process message"), nil
	}

	// A failed echo does not imply the connection is gone; only the broadcast
	// engine reaps records, so the directory is left untouched here.
	if status, pushErr := h.Pusher.Push(ctx, connID, data); status != PushDelivered {
		logger.Error().Err(pushErr).Msg("failed to echo message")
		return response(500, "Failed to process message"), nil
	}

	logger.Debug().Msg("echo sent")
	return response(200, "Message processed"), nil
}

func response(statusCode int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(map[string]string{"message": message})
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
