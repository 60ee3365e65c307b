package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cakehub/api/internal/services"
)

const (
	defaultQueueKey     = "jobs:deferred"
	defaultPayloadKey   = "jobs:deferred:payloads"
	defaultPollInterval = time.Second
	defaultClaimBatch   = 64
)

// cancelScript removes a pending job and its payload atomically. Returns 1
// when the job was still queued.
var cancelScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('HDEL', KEYS[2], ARGV[1])
return removed
`)

// claimScript pops every job due at or before the given score and returns the
// claimed payloads. Popping inside the script keeps concurrent pollers from
// claiming the same job twice.
var claimScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
local payloads = {}
for i, key in ipairs(due) do
	redis.call('ZREM', KEYS[1], key)
	local payload = redis.call('HGET', KEYS[2], key)
	redis.call('HDEL', KEYS[2], key)
	payloads[i] = payload or ''
end
return payloads
`)

// RedisSchedulerDeps bundles collaborators required to construct the scheduler.
type RedisSchedulerDeps struct {
	Client       redis.UniversalClient
	QueueKey     string
	PayloadKey   string
	PollInterval time.Duration
	ClaimBatch   int
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

// RedisScheduler is a durable delay queue on a Redis sorted set. The member is
// the job key, the score the fire time; payloads live in a companion hash.
// Delivery is at-least-once: a crash between claim and handler completion
// loses the claim marker but the handlers this queue feeds are idempotent.
type RedisScheduler struct {
	client       redis.UniversalClient
	queueKey     string
	payloadKey   string
	pollInterval time.Duration
	claimBatch   int
	clock        func() time.Time
	logger       func(context.Context, string, map[string]any)
}

// NewRedisScheduler wires dependencies into a RedisScheduler.
func NewRedisScheduler(deps RedisSchedulerDeps) (*RedisScheduler, error) {
	if deps.Client == nil {
		return nil, errors.New("redis scheduler: client is required")
	}

	queueKey := deps.QueueKey
	if queueKey == "" {
		queueKey = defaultQueueKey
	}
	payloadKey := deps.PayloadKey
	if payloadKey == "" {
		payloadKey = defaultPayloadKey
	}
	interval := deps.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	batch := deps.ClaimBatch
	if batch <= 0 {
		batch = defaultClaimBatch
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &RedisScheduler{
		client:       deps.Client,
		queueKey:     queueKey,
		payloadKey:   payloadKey,
		pollInterval: interval,
		claimBatch:   batch,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Schedule enqueues a job to fire after the delay. Re-scheduling an existing
// key moves its fire time and replaces its payload.
func (s *RedisScheduler) Schedule(ctx context.Context, key string, payload services.JobPayload, delay time.Duration) error {
	if key == "" {
		return errors.New("redis scheduler: job key is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("redis scheduler: encode payload: %w", err)
	}

	fireAt := s.clock().Add(delay)
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, s.queueKey, redis.Z{Score: float64(fireAt.UnixMilli()), Member: key})
	pipe.HSet(ctx, s.payloadKey, key, body)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis scheduler: enqueue %s: %w", key, err)
	}
	return nil
}

// Cancel removes a pending job, reporting whether it was still queued.
func (s *RedisScheduler) Cancel(ctx context.Context, key string) (bool, error) {
	removed, err := cancelScript.Run(ctx, s.client, []string{s.queueKey, s.payloadKey}, key).Int()
	if err != nil {
		return false, fmt.Errorf("redis scheduler: cancel %s: %w", key, err)
	}
	return removed == 1, nil
}

// Run polls for due jobs until the context is cancelled, invoking the handler
// for each claimed payload. Intended to be run on its own goroutine.
func (s *RedisScheduler) Run(ctx context.Context, handler services.JobHandler) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drainDue(ctx, handler)
		}
	}
}

func (s *RedisScheduler) drainDue(ctx context.Context, handler services.JobHandler) {
	for {
		now := strconv.FormatInt(s.clock().UnixMilli(), 10)
		raw, err := claimScript.Run(ctx, s.client, []string{s.queueKey, s.payloadKey}, now, s.claimBatch).StringSlice()
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger(ctx, "jobs.claim.failed", map[string]any{"error": err.Error()})
			}
			return
		}
		if len(raw) == 0 {
			return
		}

		for _, body := range raw {
			var payload services.JobPayload
			if err := json.Unmarshal([]byte(body), &payload); err != nil {
				s.logger(ctx, "jobs.payload.invalid", map[string]any{"error": err.Error()})
				continue
			}
			handler(ctx, payload)
		}

		if len(raw) < s.claimBatch {
			return
		}
	}
}
