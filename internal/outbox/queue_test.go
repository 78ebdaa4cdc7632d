// internal/outbox/queue_test.go
package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyPublisher fails the first failures calls, then succeeds.
type flakyPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	records  []Record
}

func (p *flakyPublisher) Publish(_ context.Context, rec Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("transient publish failure")
	}
	p.records = append(p.records, rec)
	return nil
}

func (p *flakyPublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *flakyPublisher) delivered() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Record{}, p.records...)
}

func testConfig() Config {
	return Config{BufferSize: 16, MaxAttempts: 3, RetryDelay: time.Millisecond}
}

func TestQueueDelivers(t *testing.T) {
	p := &flakyPublisher{}
	q := NewQueue(p, testConfig())

	rec := Record{MatchID: uuid.New(), EventType: "turn_end"}
	q.Enqueue(rec)
	q.Close()

	delivered := p.delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, rec.MatchID, delivered[0].MatchID)
	assert.Equal(t, "turn_end", delivered[0].EventType)
	assert.NotZero(t, delivered[0].Timestamp, "Enqueue stamps records")
}

func TestQueueRetriesTransientFailures(t *testing.T) {
	p := &flakyPublisher{failures: 2}
	q := NewQueue(p, testConfig())

	q.Enqueue(Record{MatchID: uuid.New(), EventType: "match_win"})
	q.Close()

	assert.Equal(t, 3, p.callCount(), "two failures plus the success")
	require.Len(t, p.delivered(), 1)
}

func TestQueueDropsAfterMaxAttempts(t *testing.T) {
	p := &flakyPublisher{failures: 1000}
	q := NewQueue(p, testConfig())

	q.Enqueue(Record{MatchID: uuid.New(), EventType: "turn_end"})
	q.Close()

	assert.Equal(t, 3, p.callCount(), "exactly MaxAttempts tries")
	assert.Empty(t, p.delivered())
}

func TestQueuePreservesOrder(t *testing.T) {
	p := &flakyPublisher{}
	q := NewQueue(p, testConfig())

	id := uuid.New()
	for _, ev := range []string{"match_start", "turn_start", "turn_end", "match_win"} {
		q.Enqueue(Record{MatchID: id, EventType: ev})
	}
	q.Close()

	delivered := p.delivered()
	require.Len(t, delivered, 4)
	assert.Equal(t, "match_start", delivered[0].EventType)
	assert.Equal(t, "match_win", delivered[3].EventType)
}

func TestEnqueueNeverBlocksWhenFull(t *testing.T) {
	// A publisher that blocks until released, so the buffer fills up.
	release := make(chan struct{})
	blocking := publisherFunc(func(ctx context.Context, rec Record) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	})

	q := NewQueue(blocking, Config{BufferSize: 1, MaxAttempts: 1, RetryDelay: time.Millisecond})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			q.Enqueue(Record{MatchID: uuid.New(), EventType: "turn_tick"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}
	close(release)
	q.Close()
}

func TestEnqueueSafeDuringClose(t *testing.T) {
	// Enqueue racing Close must drop the record, never hit a closed
	// channel. Run the race repeatedly to give the scheduler chances
	// to interleave them.
	for i := 0; i < 100; i++ {
		p := &flakyPublisher{}
		q := NewQueue(p, testConfig())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Enqueue(Record{MatchID: uuid.New(), EventType: "turn_tick"})
			}
		}()

		q.Close()
		wg.Wait()
	}
}

func TestEnqueueAfterCloseDrops(t *testing.T) {
	p := &flakyPublisher{}
	q := NewQueue(p, testConfig())
	q.Close()

	q.Enqueue(Record{MatchID: uuid.New(), EventType: "turn_end"})
	assert.Empty(t, p.delivered())

	// A second Close is a no-op.
	q.Close()
}

type publisherFunc func(ctx context.Context, rec Record) error

func (f publisherFunc) Publish(ctx context.Context, rec Record) error { return f(ctx, rec) }
