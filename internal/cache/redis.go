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
)

// Rdb is the global Redis client. Nil until ConnectRedis succeeds; publishers
// treat nil as "auditing disabled", so the room core never depends on Redis
// being up.
var Rdb *redis.Client

// DefaultQueueName is the Redis list rooms publish lifecycle records to.
var DefaultQueueName = "room_events"

// Room lifecycle event names pushed onto the queue.
const (
	RoomCreated = "room_created"
	RoomStarted = "game_started"
	RoomDeleted = "room_deleted"
)

// RoomEventRecord is one room lifecycle entry for an out-of-process consumer.
type RoomEventRecord struct {
	RoomID    string `json:"room_id"`
	Event     string `json:"event"`
	ActorID   string `json:"actor_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectRedis initializes the global client from environment variables:
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
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishRoomEvent pushes a lifecycle record onto the queue. Best-effort: a
// nil client is a no-op and errors are returned for logging only.
func PublishRoomEvent(ctx context.Context, roomID, event, actorID string) error {
	if Rdb == nil {
		return nil
	}

	record := RoomEventRecord{
		RoomID:    roomID,
		Event:     event,
		ActorID:   actorID,
		Timestamp: time.Now().Unix(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomEventRecord: %w", err)
	}

	queueName := getEnv("ROOM_EVENT_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

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
