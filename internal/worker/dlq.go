package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix namespaces dead-letter lists: dlq:{original_queue}.
const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with what is needed to inspect or replay it.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

// SendToDLQ parks a job that ran out of attempts.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC(),
		Attempts:      attempts,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Redrive moves up to limit of the oldest dead-lettered jobs back onto their
// queue with a fresh attempt budget. Jobs whose payload carries a passed
// expires_at are discarded. It returns how many were moved.
func Redrive(ctx context.Context, rdb *redis.Client, queue string, limit int) (int, error) {
	moved := 0
	for moved < limit {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: dropping undecodable entry")
			continue
		}
		if payloadExpired(entry.Payload, time.Now()) {
			log.Info().Str("queue", queue).Str("job_type", entry.JobType).Msg("dlq: expired job discarded")
			continue
		}
		if err := pushJob(ctx, rdb, queue, Job{Type: entry.JobType, Payload: entry.Payload}); err != nil {
			// put it back so nothing is lost
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return moved, err
		}
		moved++
	}
	return moved, nil
}

func payloadExpired(payload json.RawMessage, now time.Time) bool {
	var p struct {
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.ExpiresAt == nil {
		return false
	}
	return !now.Before(*p.ExpiresAt)
}
