package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"asset-ledger/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPayload struct {
	Ref string `json:"ref"`
}

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	_, client := newTestClient(t)
	return NewQueue(client, QueueOptions{
		DequeueTimeout: 100 * time.Millisecond,
		EnqueueTimeout: time.Second,
		PollInterval:   10 * time.Millisecond,
	}, zerolog.Nop())
}

// runUntil processes jobs until done is closed or the deadline passes.
func runUntil(t *testing.T, q *Queue, handler ports.JobHandler, done <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = q.ProcessJobs(ctx, "settlement", "provider-event", handler, 2)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timed out waiting for jobs")
	}
	cancel()
	<-stopped
}

func TestQueue_DeliversPayload(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{Ref: "fb-1"}, ports.JobOptions{Attempts: 3, Backoff: time.Millisecond})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	done := make(chan struct{})
	var got ports.Job
	runUntil(t, q, func(_ context.Context, job ports.Job) error {
		got = job
		close(done)
		return nil
	}, done)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, 3, got.MaxAttempts)
	var p testPayload
	require.NoError(t, json.Unmarshal(got.Payload, &p))
	assert.Equal(t, "fb-1", p.Ref)
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{Ref: "fb-2"}, ports.JobOptions{Attempts: 3, Backoff: 5 * time.Millisecond})
	require.NoError(t, err)

	var calls int32
	done := make(chan struct{})
	runUntil(t, q, func(_ context.Context, job ports.Job) error {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, int(n), job.Attempt)
		if n < 3 {
			return errors.New("provider timeout")
		}
		close(done)
		return nil
	}, done)

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueue_ExhaustedJobMovesToFailed(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{Ref: "fb-3"}, ports.JobOptions{Attempts: 2, Backoff: time.Millisecond})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for {
			if n, _ := q.client.LLen(ctx, queueKey("settlement", "provider-event", "failed")).Result(); n == 1 {
				close(done)
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()
	runUntil(t, q, func(context.Context, ports.Job) error {
		return errors.New("still failing")
	}, done)

	failed, err := q.FailedJobs(ctx, "settlement", "provider-event")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, id, failed[0].ID)
	assert.Equal(t, 2, failed[0].Attempt)
}

func TestQueue_PanicIsRetried(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	_, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{}, ports.JobOptions{Attempts: 2, Backoff: time.Millisecond})
	require.NoError(t, err)

	var calls int32
	done := make(chan struct{})
	runUntil(t, q, func(context.Context, ports.Job) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("nil map")
		}
		close(done)
		return nil
	}, done)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueue_DelayedJobIsHeld(t *testing.T) {
	_, client := newTestClient(t)
	q := NewQueue(client, QueueOptions{DequeueTimeout: 100 * time.Millisecond}, zerolog.Nop())
	ctx := context.Background()

	_, err := q.AddJob(ctx, "maintenance", "delete-virtual-account", testPayload{Ref: "va-1"}, ports.JobOptions{Delay: 7 * 24 * time.Hour})
	require.NoError(t, err)

	n, err := client.ZCard(ctx, queueKey("maintenance", "delete-virtual-account", "delayed")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, q.promote(ctx, "maintenance", "delete-virtual-account"))
	ready, err := client.LLen(ctx, queueKey("maintenance", "delete-virtual-account", "ready")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ready, "job is not due yet")

	q.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	require.NoError(t, q.promote(ctx, "maintenance", "delete-virtual-account"))
	ready, err = client.LLen(ctx, queueKey("maintenance", "delete-virtual-account", "ready")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), ready)
}

func TestQueue_RunningJobStaysLeased(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()
	inflight := queueKey("settlement", "provider-event", "inflight")
	ready := queueKey("settlement", "provider-event", "ready")

	_, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{Ref: "fb-4"}, ports.JobOptions{Attempts: 1})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	runCtx, cancel := context.WithCancel(ctx)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = q.ProcessJobs(runCtx, "settlement", "provider-event", func(context.Context, ports.Job) error {
			close(started)
			<-release
			return nil
		}, 1)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never delivered")
	}

	n, err := q.client.ZCard(ctx, inflight).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "running job is held in the inflight set")
	n, err = q.client.LLen(ctx, ready).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	close(release)
	require.Eventually(t, func() bool {
		n, err := q.client.ZCard(ctx, inflight).Result()
		return err == nil && n == 0
	}, 5*time.Second, 10*time.Millisecond, "ack clears the lease")

	cancel()
	<-stopped
}

func TestQueue_ExpiredLeaseIsRedelivered(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	id, err := q.AddJob(ctx, "settlement", "provider-event", testPayload{Ref: "fb-5"}, ports.JobOptions{Attempts: 3})
	require.NoError(t, err)

	// A worker claims the job and dies before recording an outcome.
	c, err := q.claim(ctx, "settlement", "provider-event")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, id, c.env.ID)

	n, err := q.reclaim(ctx, "settlement", "provider-event")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "lease still valid")

	q.now = func() time.Time { return time.Now().Add(q.opts.VisibilityTimeout + time.Second) }
	n, err = q.reclaim(ctx, "settlement", "provider-event")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	done := make(chan struct{})
	var got ports.Job
	runUntil(t, q, func(_ context.Context, job ports.Job) error {
		got = job
		close(done)
		return nil
	}, done)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1, got.Attempt)
}

func TestBackoff(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, 5*time.Second, Backoff(base, 1))
	assert.Equal(t, 10*time.Second, Backoff(base, 2))
	assert.Equal(t, 20*time.Second, Backoff(base, 3))
	assert.Equal(t, 5*time.Second, Backoff(base, 0))
}
