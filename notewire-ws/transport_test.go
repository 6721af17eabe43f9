package notewirews

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go/service/apigatewaymanagementapi/apigatewaymanagementapiiface"
	"github.com/tj/assert"
)

type stubManagementAPI struct {
	apigatewaymanagementapiiface.ApiGatewayManagementApiAPI
	err error
}

func (s *stubManagementAPI) PostToConnectionWithContext(_ aws.Context, _ *apigatewaymanagementapi.PostToConnectionInput, _ ...request.Option) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func TestManagementPusher(t *testing.T) {
	ctx := context.Background()

	t.Run("delivered", func(t *testing.T) {
		pusher := NewManagementPusher(&stubManagementAPI{}, 0)
		status, err := pusher.Push(ctx, "c1", []byte(`{}`))
		assert.NoError(t, err)
		assert.Equal(t, PushDelivered, status)
	})

	t.Run("gone exception", func(t *testing.T) {
		pusher := NewManagementPusher(&stubManagementAPI{
			err: awserr.New(apigatewaymanagementapi.ErrCodeGoneException, "connection is gone", nil),
		}, 0)
		status, err := pusher.Push(ctx, "c1", []byte(`{}`))
		assert.Error(t, err)
		assert.Equal(t, PushGone, status)
	})

	t.Run("throttling is transient", func(t *testing.T) {
		pusher := NewManagementPusher(&stubManagementAPI{
			err: awserr.New("LimitExceededException", "throttled", nil),
		}, 0)
		status, err := pusher.Push(ctx, "c1", []byte(`{}`))
		assert.Error(t, err)
		assert.Equal(t, PushTransientFailure, status)
	})

	t.Run("plain error is transient", func(t *testing.T) {
		pusher := NewManagementPusher(&stubManagementAPI{
			err: fmt.Errorf("connection reset by peer"),
		}, 0)
		status, _ := pusher.Push(ctx, "c1", []byte(`{}`))
		assert.Equal(t, PushTransientFailure, status)
	})
}
