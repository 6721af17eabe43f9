package notewirews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	consumer "github.com/harlow/kinesis-consumer"
	"github.com/rs/zerolog"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/notewire/notewire-realtime/notewire-ws/publish"
)

// Relay consumes broadcast requests from the events stream and fans them out.
// It is the asynchronous ingress; the HTTP endpoint is the synchronous one.
type Relay struct {
	Broadcaster *Broadcaster
	Logger      zerolog.Logger
}

// Start runs the relay as a Lambda Kinesis handler, or as a long-lived
// consumer of the live stream in console mode.
func (r *Relay) Start() error {
	if !notewirecli.CommonOpts.Console {
		lambda.Start(r.HandleKinesisEvent)
		return nil
	}
	return r.handleRealtime()
}

// HandleKinesisEvent processes a batch of Kinesis records, broadcasting each
// one. A bad record or a failed broadcast is logged and the rest of the
// batch still runs; the stream's retry policy owns redelivery.
func (r *Relay) HandleKinesisEvent(ctx context.Context, event events.KinesisEvent) error {
	for _, record := range event.Records {
		if err := r.processRecord(ctx, record); err != nil {
			r.Logger.Error().Err(err).
				Str("event_id", record.EventID).
				Msg("failed to process kinesis record")
		}
	}
	return nil
}

func (r *Relay) processRecord(ctx context.Context, record events.KinesisEventRecord) error {
	var req BroadcastRequest
	if err := json.Unmarshal(record.Kinesis.Data, &req); err != nil {
		return fmt.Errorf("unmarshalling kinesis record: %w", err)
	}

	_, err := r.Broadcaster.Broadcast(ctx, req)
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		// Re-driving the stream won't fix a malformed record.
		r.Logger.Warn().Err(err).Msg("skipping invalid broadcast request")
		return nil
	}
	return err
}

func (r *Relay) handleRealtime() error {
	streamName := publish.StreamName(notewirecli.CommonOpts.Env)
	c, err := consumer.New(streamName, consumer.WithShardIteratorType("LATEST"))
	if err != nil {
		return err
	}

	ctx := r.Logger.WithContext(context.Background())
	callback := func(record *consumer.Record) error {
		er := events.KinesisEventRecord{
			Kinesis: events.KinesisRecord{Data: record.Data},
		}
		if err := r.processRecord(ctx, er); err != nil {
			r.Logger.Error().Err(err).Msg("failed to process record")
		}
		return nil
	}
	fmt.Println("Listening...")
	return c.Scan(ctx, callback)
}
