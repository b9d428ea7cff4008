package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "mnemo:mirror:"
const redisIndexKey = "mnemo:mirror-index"

// RedisMirror stores memory summaries as JSON values keyed by content
// hash, with a set tracking all known hashes.
type RedisMirror struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisMirror connects to Redis at url and verifies the connection.
func NewRedisMirror(url string, logger *zap.Logger) (*RedisMirror, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("mirror: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("mirror: ping redis: %w", err)
	}
	logger.Info("redis mirror connected")
	return &RedisMirror{client: client, logger: logger}, nil
}

// Publish records the summary, bumping the access count when the
// content hash is already known.
func (m *RedisMirror) Publish(ctx context.Context, s Summary) error {
	key := redisKeyPrefix + s.ContentHash

	existing, err := m.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		// first sighting, store as-is
	case err != nil:
		return fmt.Errorf("mirror: get %s: %w", key, err)
	default:
		var prev Summary
		if uErr := json.Unmarshal(existing, &prev); uErr == nil {
			s = prev
			s.AccessCount++
			s.LastSeenAt = time.Now().UTC()
		}
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("mirror: marshal summary: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, redisIndexKey, s.ContentHash)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror: publish %s: %w", key, err)
	}
	return nil
}

// Stats aggregates all mirrored summaries.
func (m *RedisMirror) Stats(ctx context.Context) (Stats, error) {
	hashes, err := m.client.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("mirror: list hashes: %w", err)
	}

	summaries := make([]Summary, 0, len(hashes))
	for _, h := range hashes {
		data, err := m.client.Get(ctx, redisKeyPrefix+h).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return Stats{}, fmt.Errorf("mirror: get %s: %w", h, err)
		}
		var s Summary
		if err := json.Unmarshal(data, &s); err != nil {
			m.logger.Warn("skipping unparseable mirror entry", zap.String("hash", h), zap.Error(err))
			continue
		}
		summaries = append(summaries, s)
	}
	return aggregate(summaries), nil
}

// Close tears down the Redis connection.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}
