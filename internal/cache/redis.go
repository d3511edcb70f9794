package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// materializationKeyPrefix — префикс ключей кэша в Redis.
const materializationKeyPrefix = "materialization:"

// redisCache — разделяемый кэш для многопроцессного развёртывания.
// Без TTL: записи инвалидируются только перезаписью.
type redisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш материализаций поверх Redis.
func NewRedis(client *redis.Client) Materializations {
	return &redisCache{client: client}
}

func (c *redisCache) Get(ctx context.Context, externalID string) (*Entry, error) {
	data, err := c.client.Get(ctx, materializationKeyPrefix+externalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение кэша материализаций: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("разбор записи кэша материализаций: %w", err)
	}
	return &entry, nil
}

func (c *redisCache) Put(ctx context.Context, externalID string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("сериализация записи кэша материализаций: %w", err)
	}

	if err := c.client.Set(ctx, materializationKeyPrefix+externalID, data, 0).Err(); err != nil {
		return fmt.Errorf("запись кэша материализаций: %w", err)
	}
	return nil
}
