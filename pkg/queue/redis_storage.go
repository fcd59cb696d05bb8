package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage on Redis sorted sets. Jobs are JSON
// documents keyed by ID; three sorted sets drive dispatch:
//
//   - scheduled: score is the ReadyAt instant (ms); due members are promoted
//     to ready inside the claim script
//   - ready: score is a rank combining priority weight and submission
//     sequence, so ZRANGE yields weight-first, FIFO-within-tier order
//   - active: score is the lease expiry (ms); expired members are
//     reclaimed inside the claim script
//
// All state transitions run as Lua scripts, so concurrent claimers can never
// lease the same job.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage creates a Redis-backed queue storage. The prefix namespaces
// all keys so multiple queues can share one Redis instance.
func NewRedisStorage(client *redis.Client, prefix string) (*RedisStorage, error) {
	if client == nil {
		return nil, ErrStorageNil
	}
	if prefix == "" {
		prefix = "notifykit:queue"
	}
	return &RedisStorage{client: client, prefix: prefix}, nil
}

// redisJob is the wire representation. Instants are unix milliseconds so the
// Lua scripts can compare and rewrite them without time parsing.
type redisJob struct {
	ID             string          `json:"id"`
	NotificationID string          `json:"notification_id"`
	Channel        string          `json:"channel"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Status         string          `json:"status"`
	Weight         int             `json:"weight"`
	AttemptsMade   int             `json:"attempts_made"`
	MaxAttempts    int             `json:"max_attempts"`
	ReadyAtMs      int64           `json:"ready_at_ms"`
	LeasedUntilMs  int64           `json:"leased_until_ms,omitempty"`
	LeasedBy       string          `json:"leased_by,omitempty"`
	LastError      string          `json:"last_error,omitempty"`
	CreatedAtMs    int64           `json:"created_at_ms"`
	Rank           float64         `json:"rank"`
}

func (rs *RedisStorage) jobKey(id string) string    { return rs.prefix + ":job:" + id }
func (rs *RedisStorage) readyKey() string           { return rs.prefix + ":ready" }
func (rs *RedisStorage) scheduledKey() string       { return rs.prefix + ":scheduled" }
func (rs *RedisStorage) activeKey() string          { return rs.prefix + ":active" }
func (rs *RedisStorage) completedKey() string       { return rs.prefix + ":completed" }
func (rs *RedisStorage) failedKey() string          { return rs.prefix + ":failed" }
func (rs *RedisStorage) seqKey() string             { return rs.prefix + ":seq" }
func (rs *RedisStorage) jobKeyPrefix() string       { return rs.prefix + ":job:" }

// rank folds (weight, sequence) into one sortable score. The sequence uses the
// low 2^40 range, which keeps the combined value well inside float64 precision.
func rank(w Weight, seq int64) float64 {
	return float64(w)*float64(1<<40) + float64(seq)
}

func (rs *RedisStorage) CreateJob(ctx context.Context, job *Job) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}

	seq, err := rs.client.Incr(ctx, rs.seqKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate job sequence: %w", err)
	}

	rj := redisJob{
		ID:             job.ID.String(),
		NotificationID: job.NotificationID.String(),
		Channel:        job.Channel,
		Payload:        job.Payload,
		Status:         string(StatusPending),
		Weight:         int(job.Weight),
		AttemptsMade:   job.AttemptsMade,
		MaxAttempts:    job.MaxAttempts,
		ReadyAtMs:      job.ReadyAt.UnixMilli(),
		CreatedAtMs:    job.CreatedAt.UnixMilli(),
		Rank:           rank(job.Weight, seq),
	}

	raw, err := json.Marshal(rj)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPayloadMarshal, err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.jobKey(rj.ID), raw, 0)
	if job.ReadyAt.After(time.Now()) {
		pipe.ZAdd(ctx, rs.scheduledKey(), redis.Z{Score: float64(rj.ReadyAtMs), Member: rj.ID})
	} else {
		pipe.ZAdd(ctx, rs.readyKey(), redis.Z{Score: rj.Rank, Member: rj.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create job in redis: %w", err)
	}

	return nil
}

// claimScript reclaims expired leases, promotes due scheduled jobs, then
// atomically pops and leases the best ready job.
var claimScript = redis.NewScript(`
local ready, scheduled, active = KEYS[1], KEYS[2], KEYS[3]
local now = tonumber(ARGV[1])
local leaseUntil = tonumber(ARGV[2])
local worker = ARGV[3]
local jobPrefix = ARGV[4]

local expired = redis.call('ZRANGEBYSCORE', active, '-inf', now)
for _, id in ipairs(expired) do
    redis.call('ZREM', active, id)
    local raw = redis.call('GET', jobPrefix .. id)
    if raw then
        local job = cjson.decode(raw)
        job['status'] = 'pending'
        job['leased_until_ms'] = nil
        job['leased_by'] = nil
        redis.call('SET', jobPrefix .. id, cjson.encode(job))
        redis.call('ZADD', ready, job['rank'], id)
    end
end

local due = redis.call('ZRANGEBYSCORE', scheduled, '-inf', now)
for _, id in ipairs(due) do
    redis.call('ZREM', scheduled, id)
    local raw = redis.call('GET', jobPrefix .. id)
    if raw then
        local job = cjson.decode(raw)
        redis.call('ZADD', ready, job['rank'], id)
    end
end

local ids = redis.call('ZRANGE', ready, 0, 0)
if #ids == 0 then
    return false
end
local id = ids[1]
redis.call('ZREM', ready, id)
local raw = redis.call('GET', jobPrefix .. id)
if not raw then
    return false
end
local job = cjson.decode(raw)
job['status'] = 'active'
job['leased_until_ms'] = leaseUntil
job['leased_by'] = worker
local encoded = cjson.encode(job)
redis.call('SET', jobPrefix .. id, encoded)
redis.call('ZADD', active, leaseUntil, id)
return encoded
`)

func (rs *RedisStorage) ClaimJob(ctx context.Context, workerID uuid.UUID, leaseFor time.Duration) (*Job, error) {
	now := time.Now()
	res, err := claimScript.Run(ctx, rs.client,
		[]string{rs.readyKey(), rs.scheduledKey(), rs.activeKey()},
		now.UnixMilli(),
		now.Add(leaseFor).UnixMilli(),
		workerID.String(),
		rs.jobKeyPrefix(),
	).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoEligibleJobs
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	raw, ok := res.(string)
	if !ok || raw == "" {
		return nil, ErrNoEligibleJobs
	}

	return decodeRedisJob([]byte(raw))
}

// ackScript completes an active job and records it for stats and purging.
var ackScript = redis.NewScript(`
local active, completed = KEYS[1], KEYS[2]
local id = ARGV[1]
local jobPrefix = ARGV[2]

local raw = redis.call('GET', jobPrefix .. id)
if not raw then
    return 'notfound'
end
local job = cjson.decode(raw)
if job['status'] ~= 'active' then
    return 'notactive'
end
redis.call('ZREM', active, id)
job['status'] = 'completed'
job['leased_until_ms'] = nil
job['leased_by'] = nil
redis.call('SET', jobPrefix .. id, cjson.encode(job))
redis.call('ZADD', completed, job['created_at_ms'], id)
return 'ok'
`)

func (rs *RedisStorage) AckJob(ctx context.Context, jobID uuid.UUID) error {
	res, err := ackScript.Run(ctx, rs.client,
		[]string{rs.activeKey(), rs.completedKey()},
		jobID.String(), rs.jobKeyPrefix(),
	).Text()
	if err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}

	switch res {
	case "ok":
		return nil
	case "notfound":
		return ErrJobNotFound
	default:
		return fmt.Errorf("%w: job %s", ErrJobNotActive, jobID)
	}
}

// retryScript consumes one attempt and either re-admits the job after the
// delay or terminally fails it.
var retryScript = redis.NewScript(`
local ready, scheduled, active, failed = KEYS[1], KEYS[2], KEYS[3], KEYS[4]
local id = ARGV[1]
local now = tonumber(ARGV[2])
local delay = tonumber(ARGV[3])
local lastError = ARGV[4]
local jobPrefix = ARGV[5]

local raw = redis.call('GET', jobPrefix .. id)
if not raw then
    return 'notfound'
end
local job = cjson.decode(raw)
if job['status'] ~= 'active' then
    return 'notactive'
end
redis.call('ZREM', active, id)
job['attempts_made'] = job['attempts_made'] + 1
job['last_error'] = lastError
job['leased_until_ms'] = nil
job['leased_by'] = nil

if job['attempts_made'] >= job['max_attempts'] then
    job['status'] = 'failed'
    redis.call('SET', jobPrefix .. id, cjson.encode(job))
    redis.call('ZADD', failed, job['created_at_ms'], id)
    return 'exhausted'
end

job['status'] = 'pending'
job['ready_at_ms'] = now + delay
redis.call('SET', jobPrefix .. id, cjson.encode(job))
if delay > 0 then
    redis.call('ZADD', scheduled, job['ready_at_ms'], id)
else
    redis.call('ZADD', ready, job['rank'], id)
end
return 'ok'
`)

func (rs *RedisStorage) RetryJob(ctx context.Context, jobID uuid.UUID, delay time.Duration, lastError string) error {
	res, err := retryScript.Run(ctx, rs.client,
		[]string{rs.readyKey(), rs.scheduledKey(), rs.activeKey(), rs.failedKey()},
		jobID.String(), time.Now().UnixMilli(), delay.Milliseconds(), lastError, rs.jobKeyPrefix(),
	).Text()
	if err != nil {
		return fmt.Errorf("failed to retry job: %w", err)
	}

	switch res {
	case "ok":
		return nil
	case "exhausted":
		return ErrRetriesExhausted
	case "notfound":
		return ErrJobNotFound
	default:
		return fmt.Errorf("%w: job %s", ErrJobNotActive, jobID)
	}
}

func (rs *RedisStorage) GetJob(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	raw, err := rs.client.Get(ctx, rs.jobKey(jobID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return decodeRedisJob(raw)
}

func (rs *RedisStorage) Stats(ctx context.Context) (Stats, error) {
	now := time.Now().UnixMilli()
	nowArg := fmt.Sprintf("%d", now)
	nextArg := fmt.Sprintf("(%d", now)

	pipe := rs.client.Pipeline()
	ready := pipe.ZCard(ctx, rs.readyKey())
	dueScheduled := pipe.ZCount(ctx, rs.scheduledKey(), "-inf", nowArg)
	futureScheduled := pipe.ZCount(ctx, rs.scheduledKey(), nextArg, "+inf")
	expiredActive := pipe.ZCount(ctx, rs.activeKey(), "-inf", nowArg)
	liveActive := pipe.ZCount(ctx, rs.activeKey(), nextArg, "+inf")
	completed := pipe.ZCard(ctx, rs.completedKey())
	failed := pipe.ZCard(ctx, rs.failedKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("failed to collect queue stats: %w", err)
	}

	// Due-but-unpromoted scheduled jobs and expired leases are eligible for
	// the next claim, so they count as waiting.
	return Stats{
		Waiting:   int(ready.Val() + dueScheduled.Val() + expiredActive.Val()),
		Scheduled: int(futureScheduled.Val()),
		Active:    int(liveActive.Val()),
		Completed: int(completed.Val()),
		Failed:    int(failed.Val()),
	}, nil
}

func (rs *RedisStorage) PurgeFinished(ctx context.Context, olderThan time.Time) (int, error) {
	cutoff := fmt.Sprintf("%d", olderThan.UnixMilli())
	removed := 0

	for _, key := range []string{rs.completedKey(), rs.failedKey()} {
		ids, err := rs.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: "-inf", Max: cutoff}).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to list finished jobs: %w", err)
		}
		if len(ids) == 0 {
			continue
		}

		pipe := rs.client.TxPipeline()
		for _, id := range ids {
			pipe.Del(ctx, rs.jobKey(id))
			pipe.ZRem(ctx, key, id)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("failed to purge finished jobs: %w", err)
		}
		removed += len(ids)
	}

	return removed, nil
}

func decodeRedisJob(raw []byte) (*Job, error) {
	var rj redisJob
	if err := json.Unmarshal(raw, &rj); err != nil {
		return nil, fmt.Errorf("failed to decode job document: %w", err)
	}

	id, err := uuid.Parse(rj.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid job ID %q: %w", rj.ID, err)
	}
	notificationID, err := uuid.Parse(rj.NotificationID)
	if err != nil {
		return nil, fmt.Errorf("invalid notification ID %q: %w", rj.NotificationID, err)
	}

	job := &Job{
		ID:             id,
		NotificationID: notificationID,
		Channel:        rj.Channel,
		Payload:        rj.Payload,
		Status:         Status(rj.Status),
		Weight:         Weight(rj.Weight),
		AttemptsMade:   rj.AttemptsMade,
		MaxAttempts:    rj.MaxAttempts,
		ReadyAt:        time.UnixMilli(rj.ReadyAtMs),
		LastError:      rj.LastError,
		CreatedAt:      time.UnixMilli(rj.CreatedAtMs),
	}

	if rj.LeasedUntilMs > 0 {
		t := time.UnixMilli(rj.LeasedUntilMs)
		job.LeasedUntil = &t
	}
	if rj.LeasedBy != "" {
		if workerID, err := uuid.Parse(rj.LeasedBy); err == nil {
			job.LeasedBy = &workerID
		}
	}

	return job, nil
}
