package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const positionsKeyPrefix = "overlay:positions:"

// RedisPositionStore keeps positions as a JSON value per driver.
type RedisPositionStore struct {
	client *redis.Client
}

// NewRedisPositionStore creates a store over client.
func NewRedisPositionStore(client *redis.Client) *RedisPositionStore {
	return &RedisPositionStore{client: client}
}

// Load implements PositionStore.
func (s *RedisPositionStore) Load(ctx context.Context, driverID string) (Positions, error) {
	raw, err := s.client.Get(ctx, positionsKeyPrefix+driverID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Positions{}, ErrPositionsNotFound
		}
		return Positions{}, fmt.Errorf("get positions: %w", err)
	}

	var p Positions
	if err := json.Unmarshal(raw, &p); err != nil {
		return Positions{}, fmt.Errorf("decode positions: %w", err)
	}
	return p, nil
}

// Save implements PositionStore.
func (s *RedisPositionStore) Save(ctx context.Context, driverID string, positions Positions) error {
	raw, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := s.client.Set(ctx, positionsKeyPrefix+driverID, raw, 0).Err(); err != nil {
		return fmt.Errorf("set positions: %w", err)
	}
	return nil
}

var _ PositionStore = (*RedisPositionStore)(nil)
