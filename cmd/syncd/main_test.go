// cmd/syncd/main_test.go
package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrush-io/wordrush/internal/outbox"
)

// newTestService builds a MirrorService without Redis or a DB; inserts
// land in the returned slice instead.
func newTestService(batchSize int, flushDelay time.Duration) (*MirrorService, func() [][]outbox.Record) {
	var mu sync.Mutex
	var flushes [][]outbox.Record

	ctx, cancel := context.WithCancel(context.Background())
	ms := &MirrorService{
		batchSize:  batchSize,
		flushDelay: flushDelay,
		batch:      make([]outbox.Record, 0, batchSize),
		insertFn: func(_ context.Context, events []outbox.Record) error {
			mu.Lock()
			defer mu.Unlock()
			flushes = append(flushes, append([]outbox.Record{}, events...))
			return nil
		},
		ctx:      ctx,
		cancelFn: cancel,
	}
	return ms, func() [][]outbox.Record {
		mu.Lock()
		defer mu.Unlock()
		return append([][]outbox.Record{}, flushes...)
	}
}

func TestFlushLoopHonorsFlushDelay(t *testing.T) {
	ms, flushed := newTestService(100, 20*time.Millisecond)
	defer ms.Stop()
	go ms.flushLoop()

	ms.appendToBatch(outbox.Record{MatchID: uuid.New(), EventType: "turn_end"})

	// Well under the batch threshold, so only the ticker can flush this.
	require.Eventually(t, func() bool {
		return len(flushed()) > 0
	}, time.Second, 5*time.Millisecond, "ticker flush did not fire near the configured delay")

	batches := flushed()
	require.Len(t, batches[0], 1)
	assert.Equal(t, "turn_end", batches[0][0].EventType)
}

func TestAppendFlushesOnFullBatch(t *testing.T) {
	// Long flush delay so only the size threshold can trigger the flush.
	ms, flushed := newTestService(3, time.Hour)
	defer ms.Stop()

	id := uuid.New()
	for i := 0; i < 3; i++ {
		ms.appendToBatch(outbox.Record{MatchID: id, EventType: "turn_start"})
	}

	batches := flushed()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 3)
}
