package state

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StateManager persists the pagination offset reached for one store/category
// pair so an interrupted run can resume instead of re-walking pages.
type StateManager interface {
	GetLastOffset(ctx context.Context, storeID, categoryCode string) (int, error)
	SetLastOffset(ctx context.Context, storeID, categoryCode string, offset int) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "lenta:progress:offset:",
	}
}

func (s *redisStateManager) key(storeID, categoryCode string) string {
	return s.keyPrefix + storeID + ":" + categoryCode
}

func (s *redisStateManager) GetLastOffset(ctx context.Context, storeID, categoryCode string) (int, error) {
	val, err := s.redisClient.Get(ctx, s.key(storeID, categoryCode)).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil // No progress saved yet
		}
		return 0, fmt.Errorf("failed to get last offset for store %s category %s: %w", storeID, categoryCode, err)
	}

	offset, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("failed to parse offset for store %s category %s: %w", storeID, categoryCode, err)
	}

	return offset, nil
}

func (s *redisStateManager) SetLastOffset(ctx context.Context, storeID, categoryCode string, offset int) error {
	err := s.redisClient.Set(ctx, s.key(storeID, categoryCode), offset, 0).Err()
	if err != nil {
		return fmt.Errorf("failed to set last offset for store %s category %s: %w", storeID, categoryCode, err)
	}
	return nil
}

// noopStateManager is used when Redis is not configured; every run starts
// from offset zero.
type noopStateManager struct{}

func NewNoopStateManager() StateManager {
	return noopStateManager{}
}

func (noopStateManager) GetLastOffset(ctx context.Context, storeID, categoryCode string) (int, error) {
	return 0, nil
}

func (noopStateManager) SetLastOffset(ctx context.Context, storeID, categoryCode string, offset int) error {
	return nil
}
