package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/domain/task"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const streamPrefix = "grocery:stream:"

// StreamName returns the stream that carries tasks of taskType.
func StreamName(taskType string) string {
	return streamPrefix + taskType
}

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, stream string) (*redis.XMessage, error)
	AckTask(ctx context.Context, stream, msgID string) error
	AutoClaim(ctx context.Context, consumer, stream string, minIdleTime time.Duration) ([]redis.XMessage, error)
	EnsureStreamsExist(ctx context.Context) error
}

type RedisQueue struct {
	redisClient *redis.Client
	groupName   string
	block       time.Duration
	taskTypes   []string
}

func NewRedisQueue(ctx context.Context, redisClient *redis.Client, cfg config.RedisConfig) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		groupName:   cfg.ConsumerGroup,
		block:       2 * time.Second,
		taskTypes:   []string{(&task.ProductRetryTask{}).TaskType()},
	}

	if err := q.EnsureStreamsExist(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure streams exist: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) createGroup(ctx context.Context, stream string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", q.groupName, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	streamName := StreamName(t.TaskType())

	values, err := task.StreamValues(t)
	if err != nil {
		return "", err
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", t.TaskType(), streamName, messageID)
	return messageID, nil
}

// GetTask returns the next undelivered message, or nil when the stream stays
// empty for the block interval.
func (q *RedisQueue) GetTask(ctx context.Context, consumer, stream string) (*redis.XMessage, error) {
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return &result[0].Messages[0], nil
}

func (q *RedisQueue) AckTask(ctx context.Context, stream, msgID string) error {
	if err := q.redisClient.XAck(ctx, stream, q.groupName, msgID).Err(); err != nil {
		return fmt.Errorf("failed to ack message %s on %s: %w", msgID, stream, err)
	}
	return nil
}

// AutoClaim takes over messages another consumer read but never acked.
func (q *RedisQueue) AutoClaim(
	ctx context.Context,
	consumer,
	stream string,
	minIdleTime time.Duration,
) ([]redis.XMessage, error) {
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	return result, nil
}

// EnsureStreamsExist creates every stream and its consumer group upfront
func (q *RedisQueue) EnsureStreamsExist(ctx context.Context) error {
	for _, taskType := range q.taskTypes {
		streamName := StreamName(taskType)
		if err := q.createGroup(ctx, streamName); err != nil {
			return fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
		log.Infof("✅ Stream %s and consumer group %s ready", streamName, q.groupName)
	}
	return nil
}
