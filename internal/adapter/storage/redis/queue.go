package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"asset-ledger/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// promoteScript moves due entries of the delayed set onto the ready list.
var promoteScript = goredis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for _, member in ipairs(due) do
	redis.call("ZREM", KEYS[1], member)
	redis.call("LPUSH", KEYS[2], member)
end
return #due
`)

// claimScript pops the oldest ready entry and leases it in the inflight set
// until ARGV[1], so a worker that dies mid-job does not lose it.
var claimScript = goredis.NewScript(`
local member = redis.call("RPOP", KEYS[1])
if not member then
	return false
end
redis.call("ZADD", KEYS[2], ARGV[1], member)
return member
`)

// reclaimScript hands entries whose lease ran out back to the ready list,
// at the consuming end so they are picked up next.
var reclaimScript = goredis.NewScript(`
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1], "LIMIT", 0, tonumber(ARGV[2]))
for _, member in ipairs(expired) do
	redis.call("ZREM", KEYS[1], member)
	redis.call("RPUSH", KEYS[2], member)
end
return #expired
`)

const promoteBatch = 100

// QueueOptions tunes the worker loop.
type QueueOptions struct {
	DequeueTimeout    time.Duration // idle wait when the ready list is empty
	EnqueueTimeout    time.Duration
	PollInterval      time.Duration // pause after a Redis error
	VisibilityTimeout time.Duration // lease on a claimed job, renewed while its handler runs
}

// envelope is the stored form of one job delivery.
type envelope struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	MaxAttempts int             `json:"max_attempts"`
	BackoffMS   int64           `json:"backoff_ms"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
}

// Queue implements ports.JobQueue on Redis lists. Each (queue, name) pair owns
// a ready list, a delayed sorted set scored by due time in unix millis, an
// inflight sorted set scored by lease expiry, and a failed list holding jobs
// that exhausted their attempts. A job leaves the inflight set only once its
// outcome is recorded, so delivery is at least once.
type Queue struct {
	client *goredis.Client
	opts   QueueOptions
	log    zerolog.Logger
	now    func() time.Time
}

// NewQueue creates a Redis-backed job queue.
func NewQueue(client *goredis.Client, opts QueueOptions, log zerolog.Logger) *Queue {
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = time.Second
	}
	if opts.EnqueueTimeout <= 0 {
		opts.EnqueueTimeout = 5 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = 5 * time.Minute
	}
	return &Queue{
		client: client,
		opts:   opts,
		log:    log.With().Str("component", "redis_queue").Logger(),
		now:    time.Now,
	}
}

func queueKey(queue, name, suffix string) string {
	return "queue:" + queue + ":" + name + ":" + suffix
}

// AddJob serialises payload as JSON and enqueues it, delayed when opts.Delay > 0.
func (q *Queue) AddJob(ctx context.Context, queue, name string, payload any, opts ports.JobOptions) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode job payload: %w", err)
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}

	env := envelope{
		ID:          uuid.NewString(),
		Name:        name,
		Payload:     raw,
		Attempt:     1,
		MaxAttempts: attempts,
		BackoffMS:   opts.Backoff.Milliseconds(),
		EnqueuedAt:  q.now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, q.opts.EnqueueTimeout)
	defer cancel()

	if err := q.schedule(ctx, q.client, queue, env, opts.Delay); err != nil {
		return "", err
	}
	return env.ID, nil
}

func (q *Queue) schedule(ctx context.Context, c goredis.Cmdable, queue string, env envelope, delay time.Duration) error {
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode job envelope: %w", err)
	}

	if delay > 0 {
		due := q.now().Add(delay).UnixMilli()
		if err := c.ZAdd(ctx, queueKey(queue, env.Name, "delayed"), goredis.Z{Score: float64(due), Member: b}).Err(); err != nil {
			return fmt.Errorf("schedule job %s: %w", env.ID, err)
		}
		return nil
	}

	if err := c.LPush(ctx, queueKey(queue, env.Name, "ready"), b).Err(); err != nil {
		return fmt.Errorf("enqueue job %s: %w", env.ID, err)
	}
	return nil
}

// ProcessJobs runs concurrency workers until ctx is done, then waits for
// in-flight handlers to return.
func (q *Queue) ProcessJobs(ctx context.Context, queue, name string, handler ports.JobHandler, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	q.log.Info().
		Str("queue", queue).
		Str("job", name).
		Int("concurrency", concurrency).
		Msg("queue workers started")

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx, queue, name, handler)
		}()
	}
	wg.Wait()

	q.log.Info().Str("queue", queue).Str("job", name).Msg("queue workers stopped")
	return nil
}

func (q *Queue) work(ctx context.Context, queue, name string, handler ports.JobHandler) {
	for ctx.Err() == nil {
		if err := q.promote(ctx, queue, name); err != nil && ctx.Err() == nil {
			q.log.Warn().Err(err).Str("queue", queue).Msg("failed to promote delayed jobs")
		}
		if n, err := q.reclaim(ctx, queue, name); err != nil && ctx.Err() == nil {
			q.log.Warn().Err(err).Str("queue", queue).Msg("failed to reclaim expired jobs")
		} else if n > 0 {
			q.log.Warn().Str("queue", queue).Str("job", name).Int64("count", n).Msg("requeued jobs with expired lease")
		}

		c, err := q.claim(ctx, queue, name)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.log.Warn().Err(err).Str("queue", queue).Msg("dequeue failed")
			q.sleep(ctx, q.opts.PollInterval)
			continue
		}
		if c == nil {
			q.sleep(ctx, q.opts.DequeueTimeout)
			continue
		}

		q.handle(ctx, queue, c, handler)
	}
}

func (q *Queue) promote(ctx context.Context, queue, name string) error {
	keys := []string{queueKey(queue, name, "delayed"), queueKey(queue, name, "ready")}
	return promoteScript.Run(ctx, q.client, keys, strconv.FormatInt(q.now().UnixMilli(), 10), promoteBatch).Err()
}

// reclaim requeues inflight jobs whose lease expired without an ack.
func (q *Queue) reclaim(ctx context.Context, queue, name string) (int64, error) {
	keys := []string{queueKey(queue, name, "inflight"), queueKey(queue, name, "ready")}
	return reclaimScript.Run(ctx, q.client, keys, strconv.FormatInt(q.now().UnixMilli(), 10), promoteBatch).Int64()
}

// claimed is a leased job. raw is the exact inflight member, needed to ack it.
type claimed struct {
	raw string
	env envelope
}

func (q *Queue) claim(ctx context.Context, queue, name string) (*claimed, error) {
	keys := []string{queueKey(queue, name, "ready"), queueKey(queue, name, "inflight")}
	raw, err := claimScript.Run(ctx, q.client, keys, q.leaseUntil()).Text()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		q.log.Error().Err(err).Str("queue", queue).Msg("dropping undecodable job")
		if rErr := q.client.ZRem(ctx, queueKey(queue, name, "inflight"), raw).Err(); rErr != nil {
			q.log.Warn().Err(rErr).Str("queue", queue).Msg("failed to drop undecodable job")
		}
		return nil, nil
	}
	return &claimed{raw: raw, env: env}, nil
}

func (q *Queue) leaseUntil() int64 {
	return q.now().Add(q.opts.VisibilityTimeout).UnixMilli()
}

// keepLease renews the lease on c until stop is closed.
func (q *Queue) keepLease(ctx context.Context, queue string, c *claimed, stop <-chan struct{}) {
	t := time.NewTicker(q.opts.VisibilityTimeout / 3)
	defer t.Stop()
	key := queueKey(queue, c.env.Name, "inflight")
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			z := goredis.Z{Score: float64(q.leaseUntil()), Member: c.raw}
			if err := q.client.ZAddXX(ctx, key, z).Err(); err != nil && ctx.Err() == nil {
				q.log.Warn().Err(err).Str("queue", queue).Str("job_id", c.env.ID).Msg("failed to renew job lease")
			}
		}
	}
}

func (q *Queue) handle(ctx context.Context, queue string, c *claimed, handler ports.JobHandler) {
	env := c.env
	job := ports.Job{
		ID:          env.ID,
		Queue:       queue,
		Name:        env.Name,
		Payload:     env.Payload,
		Attempt:     env.Attempt,
		MaxAttempts: env.MaxAttempts,
	}

	stop := make(chan struct{})
	go q.keepLease(ctx, queue, c, stop)
	err := q.invoke(ctx, handler, job)
	close(stop)

	log := q.log.With().
		Str("queue", queue).
		Str("job", env.Name).
		Str("job_id", env.ID).
		Int("attempt", env.Attempt).
		Int("max_attempts", env.MaxAttempts).
		Logger()

	// The outcome must be recorded even while the worker shuts down.
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.opts.EnqueueTimeout)
	defer cancel()

	inflight := queueKey(queue, env.Name, "inflight")
	if err == nil {
		if aErr := q.client.ZRem(ackCtx, inflight, c.raw).Err(); aErr != nil {
			log.Warn().Err(aErr).Msg("failed to ack job, it will be redelivered")
		}
		return
	}

	if env.Attempt >= env.MaxAttempts {
		log.Error().Err(err).Msg("job failed permanently")
		if fErr := q.settle(ackCtx, queue, c, func(pipe goredis.Pipeliner) error {
			return pipe.LPush(ackCtx, queueKey(queue, env.Name, "failed"), c.raw).Err()
		}); fErr != nil {
			log.Error().Err(fErr).Msg("failed to record failed job")
		}
		return
	}

	delay := Backoff(time.Duration(env.BackoffMS)*time.Millisecond, env.Attempt)
	env.Attempt++
	log.Warn().Err(err).Dur("retry_in", delay).Msg("job failed, retry scheduled")
	if pErr := q.settle(ackCtx, queue, c, func(pipe goredis.Pipeliner) error {
		return q.schedule(ackCtx, pipe, queue, env, delay)
	}); pErr != nil {
		log.Error().Err(pErr).Msg("failed to reschedule job")
	}
}

// settle removes c from the inflight set and applies next in one transaction.
func (q *Queue) settle(ctx context.Context, queue string, c *claimed, next func(goredis.Pipeliner) error) error {
	_, err := q.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRem(ctx, queueKey(queue, c.env.Name, "inflight"), c.raw)
		return next(pipe)
	})
	return err
}

func (q *Queue) invoke(ctx context.Context, handler ports.JobHandler, job ports.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panic: %v", r)
		}
	}()
	return handler(ctx, job)
}

func (q *Queue) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Backoff returns the delay before retrying after the given 1-based attempt:
// base * 2^(attempt-1).
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<uint(attempt-1))
}

// FailedJobs returns the payloads of jobs that exhausted their attempts.
func (q *Queue) FailedJobs(ctx context.Context, queue, name string) ([]ports.Job, error) {
	vals, err := q.client.LRange(ctx, queueKey(queue, name, "failed"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list failed jobs: %w", err)
	}
	jobs := make([]ports.Job, 0, len(vals))
	for _, v := range vals {
		var env envelope
		if err := json.Unmarshal([]byte(v), &env); err != nil {
			continue
		}
		jobs = append(jobs, ports.Job{
			ID: env.ID, Queue: queue, Name: env.Name, Payload: env.Payload,
			Attempt: env.Attempt, MaxAttempts: env.MaxAttempts,
		})
	}
	return jobs, nil
}
