// internal/outbox/queue.go
package outbox

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one match event bound for the remote mirror. Local match
// state is already committed by the time a Record exists; the mirror is
// for other consumers, never read back.
type Record struct {
	MatchID   uuid.UUID              `json:"match_id"`
	EventType string                 `json:"event_type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// Publisher delivers a record to the remote side. Implementations must be
// safe for use from a single worker goroutine.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Config tunes the queue's buffering and retry policy.
type Config struct {
	BufferSize  int           // pending records before Enqueue starts dropping
	MaxAttempts int           // publish attempts per record before giving up
	RetryDelay  time.Duration // base delay between attempts, grows linearly
}

// DefaultConfig returns the tuning used when the caller passes a zero
// Config.
func DefaultConfig() Config {
	return Config{
		BufferSize:  256,
		MaxAttempts: 3,
		RetryDelay:  250 * time.Millisecond,
	}
}

// Queue is the asynchronous outbox between the match engine and the
// remote mirror. Enqueue never blocks and never fails the caller: when
// the buffer is full or every publish attempt errors, the record is
// dropped with a log line. Gameplay must not stall on persistence.
type Queue struct {
	publisher Publisher
	cfg       Config

	// mu guards closed against the channel send in Enqueue. Producers
	// hold the read lock across the send, so once Close flips closed
	// under the write lock no sender can race the close of ch.
	mu     sync.RWMutex
	closed bool

	ch     chan Record
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue builds a queue and starts its worker goroutine.
func NewQueue(p Publisher, cfg Config) *Queue {
	def := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = def.BufferSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		publisher: p,
		cfg:       cfg,
		ch:        make(chan Record, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

// Enqueue hands a record to the worker. It returns immediately; a full
// buffer drops the record rather than blocking the game loop.
func (q *Queue) Enqueue(rec Record) {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Printf("outbox: closed, dropping %s event for match %s", rec.EventType, rec.MatchID)
		return
	}
	select {
	case q.ch <- rec:
	default:
		log.Printf("outbox: buffer full, dropping %s event for match %s", rec.EventType, rec.MatchID)
	}
}

// Close stops the worker after draining records already buffered.
// Enqueue calls racing Close drop their record instead of panicking;
// Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	<-q.done
	q.cancel()
}

func (q *Queue) run() {
	defer close(q.done)
	for rec := range q.ch {
		q.publishWithRetry(rec)
	}
}

// publishWithRetry attempts delivery up to MaxAttempts times with a
// linearly growing delay, then drops the record. Local state stays
// authoritative either way.
func (q *Queue) publishWithRetry(rec Record) {
	var err error
	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		err = q.publisher.Publish(q.ctx, rec)
		if err == nil {
			return
		}
		if attempt < q.cfg.MaxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * q.cfg.RetryDelay):
			case <-q.ctx.Done():
				// Queue torn down mid-retry: skip the remaining backoff.
			}
		}
	}
	log.Printf("outbox: giving up on %s event for match %s after %d attempts: %v",
		rec.EventType, rec.MatchID, q.cfg.MaxAttempts, err)
}
