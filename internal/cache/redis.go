// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wordrush-io/wordrush/internal/outbox"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for mirrored match events.
var DefaultQueueName = "wordrush_match_events"

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// QueuePublisher pushes outbox records onto the Redis match-event list,
// where the syncd worker picks them up. It implements outbox.Publisher.
type QueuePublisher struct {
	queueName string
}

// NewQueuePublisher builds a publisher for the configured queue
// (MATCH_EVENT_QUEUE_NAME, default DefaultQueueName).
func NewQueuePublisher() *QueuePublisher {
	return &QueuePublisher{
		queueName: getEnv("MATCH_EVENT_QUEUE_NAME", DefaultQueueName),
	}
}

// Publish serializes the record to JSON and RPushes it onto the queue.
func (p *QueuePublisher) Publish(ctx context.Context, rec outbox.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox record: %w", err)
	}
	if err := Rdb.RPush(ctx, p.queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
