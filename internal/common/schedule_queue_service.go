package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"commuteforecast/backend/internal/logging"
	gormModels "commuteforecast/backend/internal/models/gorm"
)

const (
	enqueueMaxRetryAttempts = 4
	enqueueBaseBackoff      = 100 * time.Millisecond
)

// enqueueBackoffDelay returns 100ms·2^(attempt-1), attempt starting at 1 —
// the same backoff shape storeutil's batched store operations use for
// unprocessed residue.
func enqueueBackoffDelay(attempt int) time.Duration {
	d := enqueueBaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// ScheduleQueueService durably hands chunks of route schedules from the
// orchestrator to the forecast worker pool via Redis Streams
// (XAdd/XReadGroup/XAck/XClaim), with consumer-group tracking giving each
// chunk at-least-once delivery and stale-worker redrive.
type ScheduleQueueService struct {
	client *redis.Client
}

func NewScheduleQueueService(client *redis.Client) *ScheduleQueueService {
	return &ScheduleQueueService{client: client}
}

// ScheduleChunk is one queue message: a bounded batch of routes plus its
// position among the orchestrator's total chunk count, for observability.
type ScheduleChunk struct {
	Routes     []gormModels.ScheduledRoute `json:"routes"`
	ChunkIndex int                         `json:"chunkIndex"`
	ChunkSize  int                         `json:"chunkSize"`
}

// EnqueueChunk publishes a single chunk via XAdd.
func (s *ScheduleQueueService) EnqueueChunk(ctx context.Context, streamName string, chunk ScheduleChunk) error {
	data, err := json.Marshal(chunk.Routes)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule chunk: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"routes":     string(data),
			"chunkIndex": chunk.ChunkIndex,
			"chunkSize":  chunk.ChunkSize,
		},
	}
	_, err = s.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to add schedule chunk to stream: %w", err)
	}
	return nil
}

// EnqueueChunkBatch publishes chunks in a single pipelined round trip. A
// chunk that fails to marshal is logged and skipped rather than aborting
// the whole sub-batch. A chunk whose XAdd fails inside the pipeline is
// retried individually with exponential backoff (up to
// enqueueMaxRetryAttempts); residue remaining after the last attempt is
// logged and does not abort the rest of the sub-batch.
func (s *ScheduleQueueService) EnqueueChunkBatch(ctx context.Context, streamName string, chunks []ScheduleChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(chunks))
	for i, chunk := range chunks {
		data, err := json.Marshal(chunk.Routes)
		if err != nil {
			logging.Warn("failed to marshal schedule chunk, skipping", "chunkIndex", chunk.ChunkIndex, "error", err)
			continue
		}
		cmds[i] = pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: streamName,
			Values: map[string]interface{}{
				"routes":     string(data),
				"chunkIndex": chunk.ChunkIndex,
				"chunkSize":  chunk.ChunkSize,
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		logging.Warn("schedule chunk batch had failures, retrying individually", "error", err)
	}

	var residue int
	for i, cmd := range cmds {
		if cmd == nil || cmd.Err() == nil {
			continue
		}
		if err := s.retryEnqueueChunk(ctx, streamName, chunks[i]); err != nil {
			logging.Warn("schedule chunk enqueue failed after retries, dropping", "chunkIndex", chunks[i].ChunkIndex, "error", err)
			residue++
		}
	}
	if residue > 0 {
		logging.Warn("schedule chunk batch completed with residue", "streamName", streamName, "residue", residue)
	}
	return nil
}

// retryEnqueueChunk retries a single chunk's XAdd with exponential backoff,
// the per-entry fallback for a chunk that failed inside a pipelined batch.
func (s *ScheduleQueueService) retryEnqueueChunk(ctx context.Context, streamName string, chunk ScheduleChunk) error {
	var lastErr error
	for attempt := 1; attempt <= enqueueMaxRetryAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(enqueueBackoffDelay(attempt - 1)):
			}
		}
		if err := s.EnqueueChunk(ctx, streamName, chunk); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("failed to enqueue schedule chunk after %d attempts: %w", enqueueMaxRetryAttempts, lastErr)
}

// ReadChunk reads a single message via consumer group (batch size 1 —
// queue concurrency caps the worker pool, not the read batch).
func (s *ScheduleQueueService) ReadChunk(ctx context.Context, streamName, groupName, consumerName string, blockTime time.Duration) (*ScheduleChunk, string, error) {
	args := &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{streamName, ">"},
		Count:    1,
		Block:    blockTime,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from schedule stream: %w", err)
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	return parseChunkMessage(streams[0].Messages[0])
}

// Ack acknowledges successful processing of a message.
func (s *ScheduleQueueService) Ack(ctx context.Context, streamName, groupName, messageID string) error {
	return s.client.XAck(ctx, streamName, groupName, messageID).Err()
}

// CreateConsumerGroup creates the stream's consumer group if absent.
func (s *ScheduleQueueService) CreateConsumerGroup(ctx context.Context, streamName, groupName string) error {
	err := s.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists" {
		return nil
	}
	return err
}

// ClaimStale reclaims messages idle longer than minIdleTime — the
// dead-worker redrive path.
func (s *ScheduleQueueService) ClaimStale(ctx context.Context, streamName, groupName, consumerName string, minIdleTime time.Duration) ([]*ScheduleChunk, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamName,
		Group:  groupName,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending schedule messages: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil, nil
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdleTime {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   streamName,
		Group:    groupName,
		Consumer: consumerName,
		MinIdle:  minIdleTime,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale schedule messages: %w", err)
	}

	var chunks []*ScheduleChunk
	var messageIDs []string
	for _, msg := range messages {
		chunk, id, err := parseChunkMessage(msg)
		if err != nil {
			logging.Warn("failed to parse claimed schedule message, skipping", "messageID", msg.ID, "error", err)
			continue
		}
		chunks = append(chunks, chunk)
		messageIDs = append(messageIDs, id)
	}
	return chunks, messageIDs, nil
}

// ReceiveCount returns how many times messageID has been delivered, used
// to decide when a message should be routed to the dead-letter stream.
func (s *ScheduleQueueService) ReceiveCount(ctx context.Context, streamName, groupName, messageID string) (int64, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: streamName,
		Group:  groupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get delivery count: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[0].RetryCount, nil
}

// QueueLength returns the number of messages in the stream; nothing in this
// repository calls it.
func (s *ScheduleQueueService) QueueLength(ctx context.Context, streamName string) (int64, error) {
	length, err := s.client.XLen(ctx, streamName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

// PendingCount returns the number of unacknowledged messages for the group.
func (s *ScheduleQueueService) PendingCount(ctx context.Context, streamName, groupName string) (int64, error) {
	pending, err := s.client.XPending(ctx, streamName, groupName).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}

// TrimStream keeps only the most recent maxLen messages; nothing in this
// repository calls it, so streams are not trimmed automatically.
func (s *ScheduleQueueService) TrimStream(ctx context.Context, streamName string, maxLen int64) error {
	return s.client.XTrimMaxLen(ctx, streamName, maxLen).Err()
}

func parseChunkMessage(msg redis.XMessage) (*ScheduleChunk, string, error) {
	routesStr, ok := msg.Values["routes"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid schedule message: routes field missing")
	}

	var routes []gormModels.ScheduledRoute
	if err := json.Unmarshal([]byte(routesStr), &routes); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal schedule chunk: %w", err)
	}

	chunk := &ScheduleChunk{Routes: routes}
	if idx, ok := msg.Values["chunkIndex"].(string); ok {
		fmt.Sscanf(idx, "%d", &chunk.ChunkIndex)
	}
	if size, ok := msg.Values["chunkSize"].(string); ok {
		fmt.Sscanf(size, "%d", &chunk.ChunkSize)
	}

	return chunk, msg.ID, nil
}
