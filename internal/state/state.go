package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StateManager remembers how far a keyword search got so an interrupted run
// can resume.
type StateManager interface {
	GetLastProcessedPage(ctx context.Context, keyword string) (int, error)
	SetLastProcessedPage(ctx context.Context, keyword string, pageNumber int) error
	ResetProgress(ctx context.Context, keyword string) error
}

type redisStateManager struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisStateManager(redisClient *redis.Client) StateManager {
	return &redisStateManager{
		redisClient: redisClient,
		keyPrefix:   "grocery:progress:search:",
	}
}

func (s *redisStateManager) key(keyword string) string {
	return s.keyPrefix + keyword
}

func (s *redisStateManager) GetLastProcessedPage(ctx context.Context, keyword string) (int, error) {
	val, err := s.redisClient.Get(ctx, s.key(keyword)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil // No progress saved yet
		}
		return 0, fmt.Errorf("failed to get last processed page for %q: %w", keyword, err)
	}

	page, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("failed to parse page number for %q: %w", keyword, err)
	}

	return page, nil
}

func (s *redisStateManager) SetLastProcessedPage(ctx context.Context, keyword string, pageNumber int) error {
	if err := s.redisClient.Set(ctx, s.key(keyword), pageNumber, 0).Err(); err != nil {
		return fmt.Errorf("failed to set last processed page for %q: %w", keyword, err)
	}
	return nil
}

func (s *redisStateManager) ResetProgress(ctx context.Context, keyword string) error {
	if err := s.redisClient.Del(ctx, s.key(keyword)).Err(); err != nil {
		return fmt.Errorf("failed to reset progress for %q: %w", keyword, err)
	}
	return nil
}
