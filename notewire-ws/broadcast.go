package notewirews

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	notewirecli "github.com/notewire/notewire-realtime/notewire-cli"
	"github.com/notewire/notewire-realtime/notewire-ws/connectiondao"
)

// ConnectionStore is the slice of the connections DAO the fan-out machinery
// needs. *connectiondao.DAO satisfies it; tests substitute fakes.
type ConnectionStore interface {
	Put(ctx context.Context, conn connectiondao.Connection) error
	Delete(ctx context.Context, connectionID string) error
	ScanAll(ctx context.Context, fn func(connectiondao.Connection) error) error
}

// Stats aggregates the delivery outcome of one broadcast.
type Stats struct {
	TotalConnections int `json:"totalConnections"`
	Sent             int `json:"sent"`
	Failed           int `json:"failed"`
	StaleRemoved     int `json:"staleRemoved"`
}

const (
	// DefaultChunkSize bounds concurrent in-flight pushes per chunk.
	DefaultChunkSize = 50
	// DefaultChunkDelay smooths the request rate against the transport
	// between chunks. Rate shaping only, not a correctness mechanism.
	DefaultChunkDelay = 10 * time.Millisecond
)

// Broadcaster fans a single envelope out to every currently-recorded
// connection, reconciling the connection directory as it goes.
type Broadcaster struct {
	Connections ConnectionStore
	Pusher      Pusher
	Logger      zerolog.Logger
	ChunkSize   int                  // max concurrent pushes per chunk (default 50)
	ChunkDelay  time.Duration        // pause between chunks (default 10ms)
	Metrics     *notewirecli.Metrics // optional CloudWatch gauges per broadcast
}

// Broadcast validates the request, builds the envelope, and attempts
// delivery to every known connection exactly once. Confirmed-gone peers are
// reaped from the directory; transient failures are counted and left for the
// next broadcast to retry. Partial failure never aborts remaining chunks,
// and an empty directory is a successful zero broadcast.
func (b *Broadcaster) Broadcast(ctx context.Context, req BroadcastRequest) (Stats, error) {
	if err := req.Validate(); err != nil {
		return Stats{}, err
	}

	envelope := NewEnvelope(req)
	data, err := json.Marshal(envelope)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	var connectionIDs []string
	err = b.Connections.ScanAll(ctx, func(conn connectiondao.Connection) error {
		connectionIDs = append(connectionIDs, conn.ConnectionID)
		return nil
	})
	if err != nil {
		return Stats{}, &StorageError{Op: "scan", Err: err}
	}

	logger := b.Logger.With().
		Str("type", envelope.Type).
		Str("message_id", envelope.ID).
		Logger()

	var sent, failed, stale int64

	chunkSize := b.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkDelay := b.ChunkDelay
	if chunkDelay == 0 {
		chunkDelay = DefaultChunkDelay
	}

	for start := 0; start < len(connectionIDs); start += chunkSize {
		end := start + chunkSize
		if end > len(connectionIDs) {
			end = len(connectionIDs)
		}

		group, groupCtx := errgroup.WithContext(ctx)
		for _, connectionID := range connectionIDs[start:end] {
			connectionID := connectionID
			group.Go(func() error {
				switch status, pushErr := b.Pusher.Push(groupCtx, connectionID, data); status {
				case PushDelivered:
					atomic.AddInt64(&sent, 1)

				case PushGone:
					logger.Info().
						Str("connection_id", connectionID).
						Msg("connection gone, cleaning up")
					if err := b.Connections.Delete(groupCtx, connectionID); err != nil {
						logger.Error().Err(err).
							Str("connection_id", connectionID).
							Msg("failed to delete gone connection")
					}
					atomic.AddInt64(&stale, 1)

				default:
					logger.Warn().Err(pushErr).
						Str("connection_id", connectionID).
						Msg("failed to deliver message")
					atomic.AddInt64(&failed, 1)
				}
				return nil
			})
		}
		group.Wait()

		if end < len(connectionIDs) {
			select {
			case <-time.After(chunkDelay):
			case <-ctx.Done():
				return Stats{}, ctx.Err()
			}
		}
	}

	stats := Stats{
		TotalConnections: len(connectionIDs),
		Sent:             int(sent),
		Failed:           int(failed),
		StaleRemoved:     int(stale),
	}

	logger.Info().
		Int("total", stats.TotalConnections).
		Int("sent", stats.Sent).
		Int("failed", stats.Failed).
		Int("stale_removed", stats.StaleRemoved).
		Msg("broadcast completed")

	b.publishMetrics(ctx, envelope.Type, stats)

	return stats, nil
}

func (b *Broadcaster) publishMetrics(ctx context.Context, eventType string, stats Stats) {
	if b.Metrics == nil {
		return
	}
	dimensions := map[notewirecli.DimensionName]string{
		notewirecli.EventTypeDimension: eventType,
	}
	b.Metrics.Gauge(ctx, notewirecli.BroadcastConnectionsMetric, float64(stats.TotalConnections), dimensions)
	b.Metrics.Gauge(ctx, notewirecli.BroadcastSentMetric, float64(stats.Sent), dimensions)
	b.Metrics.Gauge(ctx, notewirecli.BroadcastFailedMetric, float64(stats.Failed), dimensions)
	b.Metrics.Gauge(ctx, notewirecli.BroadcastStaleMetric, float64(stats.StaleRemoved), dimensions)
}
