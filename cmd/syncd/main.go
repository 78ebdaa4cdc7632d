// cmd/syncd is the asynchronous mirror daemon: it pops match events from
// the Redis queue and persists them to PostgreSQL. Matches never wait on
// it and never read from it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/wordrush-io/wordrush/internal/database"
	"github.com/wordrush-io/wordrush/internal/outbox"
)

// MirrorService encapsulates the Redis + DB logic for capturing match
// events and marking matches abandoned after a period of inactivity.
type MirrorService struct {
	redisClient  *redis.Client
	queueName    string
	batchSize    int
	flushDelay   time.Duration
	inactivity   time.Duration
	lastActivity sync.Map // map[uuid.UUID]time.Time per match

	batchMu  sync.Mutex
	batch    []outbox.Record
	insertFn func(ctx context.Context, events []outbox.Record) error
	ctx      context.Context
	cancelFn context.CancelFunc
}

// NewMirrorService constructs a MirrorService from environment variables
// or defaults.
func NewMirrorService() *MirrorService {
	batchSize := getEnvInt("SYNCD_BATCH_SIZE", 20)
	flushMs := getEnvInt("SYNCD_FLUSH_MS", 500)
	inactivitySec := getEnvInt("MATCH_INACTIVITY_TIMEOUT_SEC", 600)

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &MirrorService{
		redisClient: rdb,
		queueName:   getEnv("MATCH_EVENT_QUEUE_NAME", "wordrush_match_events"),
		batchSize:   batchSize,
		flushDelay:  time.Duration(flushMs) * time.Millisecond,
		inactivity:  time.Duration(inactivitySec) * time.Second,
		batch:       make([]outbox.Record, 0, batchSize),
		insertFn:    database.InsertMatchEvents,
		ctx:         ctx,
		cancelFn:    cancel,
	}
}

// Run starts the main loops: draining the Redis queue into the batch, the
// periodic flush into the DB, and the inactivity sweep.
func (ms *MirrorService) Run() {
	database.ConnectDB()

	go ms.readRedisLoop()
	go ms.flushLoop()
	go ms.inactivityLoop()

	log.Println("wordrush-syncd service started.")
	<-ms.ctx.Done()
	ms.flushBatch()
	log.Println("wordrush-syncd shutting down.")
}

// readRedisLoop continuously pops records off the Redis queue with BLPop.
// The periodic flush runs in flushLoop so a quiet queue never delays it
// for the length of the BLPop block.
func (ms *MirrorService) readRedisLoop() {
	for {
		if ms.ctx.Err() != nil {
			return
		}

		// BLPop with a short timeout so context cancellation is noticed.
		res, err := ms.redisClient.BLPop(ms.ctx, 3*time.Second, ms.queueName).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			if ms.ctx.Err() != nil {
				return
			}
			log.Printf("[ERROR] BLPop: %v\n", err)
			continue
		}
		if len(res) < 2 {
			continue
		}

		var rec outbox.Record
		if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
			log.Printf("invalid event record: %v\n", err)
			continue
		}

		ms.lastActivity.Store(rec.MatchID, time.Now())
		ms.appendToBatch(rec)
	}
}

// flushLoop flushes any batched records every flushDelay.
func (ms *MirrorService) flushLoop() {
	ticker := time.NewTicker(ms.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			return

		case <-ticker.C:
			ms.flushBatch()
		}
	}
}

// appendToBatch adds a record and flushes once the threshold is reached.
func (ms *MirrorService) appendToBatch(rec outbox.Record) {
	ms.batchMu.Lock()
	full := false
	ms.batch = append(ms.batch, rec)
	if len(ms.batch) >= ms.batchSize {
		full = true
	}
	ms.batchMu.Unlock()

	if full {
		ms.flushBatch()
	}
}

// flushBatch writes the current batch to the database in one transaction,
// then finalizes any matches that reported a winner.
func (ms *MirrorService) flushBatch() {
	ms.batchMu.Lock()
	if len(ms.batch) == 0 {
		ms.batchMu.Unlock()
		return
	}
	batchCopy := make([]outbox.Record, len(ms.batch))
	copy(batchCopy, ms.batch)
	ms.batch = ms.batch[:0]
	ms.batchMu.Unlock()

	ctx := context.Background()
	if err := ms.insertFn(ctx, batchCopy); err != nil {
		log.Printf("[ERROR] flushBatch: %v\n", err)
		return
	}
	log.Printf("Flushed %d events to DB.\n", len(batchCopy))

	for _, rec := range batchCopy {
		if rec.EventType == "match_win" {
			ms.finalizeMatch(ctx, rec)
			ms.lastActivity.Delete(rec.MatchID)
		}
	}
}

// finalizeMatch records the winner and per-team scores carried on a
// match_win event.
func (ms *MirrorService) finalizeMatch(ctx context.Context, rec outbox.Record) {
	winner, _ := rec.Payload["winner"].(string)
	if winner == "" {
		log.Printf("match_win for %v missing winner, skipping result row.", rec.MatchID)
		return
	}

	scores := map[string]int{}
	if raw, ok := rec.Payload["scores"].(map[string]interface{}); ok {
		for team, v := range raw {
			// JSON numbers decode as float64.
			if f, ok := v.(float64); ok {
				scores[team] = int(f)
			}
		}
	}

	if err := database.RecordMatchResult(ctx, rec.MatchID, winner, scores); err != nil {
		log.Printf("failed to record result for match %v: %v", rec.MatchID, err)
	} else {
		log.Printf("Recorded result for match %v: %s wins.", rec.MatchID, winner)
	}
}

// inactivityLoop periodically marks matches abandoned when they stop
// producing events before finishing.
func (ms *MirrorService) inactivityLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ms.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			ms.lastActivity.Range(func(key, val interface{}) bool {
				matchID, ok1 := key.(uuid.UUID)
				last, ok2 := val.(time.Time)
				if ok1 && ok2 && now.Sub(last) > ms.inactivity {
					if err := database.MarkMatchAbandoned(context.Background(), matchID); err != nil {
						log.Printf("failed to mark match %v abandoned: %v", matchID, err)
					} else {
						log.Printf("Marked match %v as abandoned due to inactivity.", matchID)
					}
					ms.lastActivity.Delete(matchID)
				}
				return true
			})
		}
	}
}

// Stop gracefully stops the service.
func (ms *MirrorService) Stop() {
	ms.cancelFn()
}

func main() {
	ms := NewMirrorService()
	go ms.Run()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	ms.Stop()
	log.Println("syncd shutdown complete.")
}

// getEnv retrieves an environment variable's value or returns a default.
func getEnv(key, defVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defVal
}

// getEnvInt retrieves an integer from an environment variable or returns
// a default.
func getEnvInt(key string, defVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defVal
	}
	return i
}
