package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobsInOrder(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{})
	q := NewQueue("runs", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Type)
		if len(seen) == 3 {
			close(done)
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 3})
	q.Start(context.Background())
	defer q.Stop()

	for _, kind := range []string{"a", "b", "c"} {
		job, err := q.Enqueue(Job{Type: kind})
		require.NoError(t, err)
		assert.NotEmpty(t, job.ID)
		assert.False(t, job.Enqueued.IsZero())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs not processed")
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestQueueRetriesFailedJob(t *testing.T) {
	attempts := make(chan int, 4)
	q := NewQueue("retry", func(_ context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt == 0 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{MaxRetries: 1, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Type: "run"})
	require.NoError(t, err)

	for want := 0; want <= 1; want++ {
		select {
		case got := <-attempts:
			assert.Equal(t, want, got)
		case <-time.After(2 * time.Second):
			t.Fatalf("attempt %d not observed", want)
		}
	}
}

func TestQueueRejectsWhenStoppedOrFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, _ Job) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})

	_, err := q.Enqueue(Job{})
	assert.ErrorIs(t, err, ErrQueueStopped)

	q.Start(context.Background())
	defer q.Stop()
	defer close(block)

	// One job occupies the worker, one fills the buffer.
	_, err = q.Enqueue(Job{})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, time.Millisecond)
	_, err = q.Enqueue(Job{})
	require.NoError(t, err)

	_, err = q.Enqueue(Job{})
	assert.ErrorIs(t, err, ErrQueueFull)
}
