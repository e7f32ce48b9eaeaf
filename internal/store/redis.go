package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ZZZSleepy333/whatsapp-clone/internal/metrics"
	"github.com/ZZZSleepy333/whatsapp-clone/internal/models"
)

// historyTTL caps how long relayed messages stay readable. The external
// message store is the system of record; this is a recency cache.
const historyTTL = 7 * 24 * time.Hour

// RedisStore implements History on a per-conversation sorted set keyed by
// the server receive time.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying client for infrastructure that shares the
// connection, like the rate limiter.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// conversationKey returns the key for a conversation's message sorted set.
func conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

// AddMessage stores a relayed message.
func (s *RedisStore) AddMessage(ctx context.Context, msg *models.StoredMessage) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.ReceivedAt == 0 {
		msg.ReceivedAt = time.Now().UnixMilli()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := conversationKey(msg.ConversationID)

	start := time.Now()
	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(msg.ReceivedAt),
		Member: string(data),
	})
	pipe.Expire(ctx, key, historyTTL)
	_, err = pipe.Exec(ctx)
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	return err
}

// ConversationMessages retrieves messages from a conversation, newest first.
// before, when positive, excludes anything received at or after it (Unix ms).
func (s *RedisStore) ConversationMessages(ctx context.Context, conversationID string, limit int, before int64) ([]models.StoredMessage, error) {
	key := conversationKey(conversationID)

	maxScore := "+inf"
	if before > 0 {
		maxScore = fmt.Sprintf("(%d", before) // exclusive
	}

	start := time.Now()
	results, err := s.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   maxScore,
		Count: int64(limit),
	}).Result()
	metrics.RedisLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	messages := make([]models.StoredMessage, 0, len(results))
	for _, data := range results {
		var msg models.StoredMessage
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			continue
		}
		messages = append(messages, msg)
	}

	return messages, nil
}
