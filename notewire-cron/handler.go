// Package notewirecron provides utilities for building scheduled Lambda functions.
package notewirecron

import (
	"context"
	"encoding/json"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
)

type RunCallback func(ctx context.Context) error

type Handler struct {
	service notewirecli.Service
	logger  zerolog.Logger

	runOnce RunCallback
}

func NewHandler(
	service notewirecli.Service,
	runOnce RunCallback,
) *Handler {
	return &Handler{
		service: service,
		logger:  notewirecli.Logger(service),
		runOnce: runOnce,
	}
}

func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	h.logger.Info().Msg("running scheduled task")
	return h.runOnce(ctx)
}

func (h *Handler) Start() error {
	switch {
	case notewirecli.CommonOpts.Console:
		return h.runOnce(context.Background())

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
