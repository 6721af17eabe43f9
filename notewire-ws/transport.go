package notewirews

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
)

// PushStatus is the normalized outcome of delivering bytes to a connection.
type PushStatus int

const (
	// PushDelivered means the transport accepted the message.
	PushDelivered PushStatus = iota
	// PushGone means the transport confirmed the remote endpoint no longer
	// exists (the 410 semantics of managed WebSocket push APIs). Only this
	// status justifies reaping the directory record.
	PushGone
	// PushTransientFailure covers everything else: timeouts, throttling,
	// unknown 5xx. The directory record is left alone so a future broadcast
	// can retry.
	PushTransientFailure
)

// Pusher delivers bytes to a single connection.
type Pusher interface {
	Push(ctx context.Context, connectionID string, data []byte) (PushStatus, error)
}

// DefaultPushTimeout bounds a single push so one unreachable connection
// cannot stall a whole chunk.
const DefaultPushTimeout = 3 * time.Second

// ManagementPusher pushes messages through the API Gateway Management API.
type ManagementPusher struct {
	api     apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	timeout time.Duration
}

// NewManagementPusher creates a pusher over an existing management API
// client. A zero timeout falls back to DefaultPushTimeout.
func NewManagementPusher(api apigatewaymanagementapiiface.ApiGatewayManagementApiAPI, timeout time.Duration) *ManagementPusher {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	return &ManagementPusher{
		api:     api,
		timeout: timeout,
	}
}

// BuildPusher creates a pusher for the given management endpoint URL
// (https://{api-id}.execute-api.{region}.amazonaws.com/{stage}).
func BuildPusher(endpoint string) *ManagementPusher {
	sess := session.Must(session.NewSession(aws.NewConfig().WithEndpoint(endpoint)))
	return NewManagementPusher(apigatewaymanagementapi.New(sess), 0)
}

// Push delivers data to the connection, classifying the outcome. A timed-out
// push is a transient failure; timeouts are not proof of permanent absence.
func (p *ManagementPusher) Push(ctx context.Context, connectionID string, data []byte) (PushStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.api.PostToConnectionWithContext(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(connectionID),
		Data:         data,
	})
	if err != nil {
		if isGoneException(err) {
			return PushGone, err
		}
		return PushTransientFailure, err
	}
	return PushDelivered, nil
}

// isGoneException checks if the error is a GoneException (HTTP 410),
// indicating the WebSocket connection no longer exists.
func isGoneException(err error) bool {
	if aerr, ok := err.(awserr.Error); ok && aerr.Code() == apigatewaymanagementapi.ErrCodeGoneException {
		return true
	}
	return strings.Contains(err.Error(), "GoneException") ||
		strings.Contains(err.Error(), "410")
}
