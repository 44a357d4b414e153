package service

import (
	"context"
	"errors"
	"fmt"
	"os"

	"grocery/scraper/internal/domain"
	"grocery/scraper/internal/domain/task"
	"grocery/scraper/internal/queue"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RetryFailed drains the retry stream once. Messages left unacked by a
// crashed run are claimed first. A product that fails again goes back on the
// stream and is read again by the same drain, so one run spends all of a
// product's maxRetries attempts.
func (s *Service) RetryFailed(ctx context.Context) error {
	if s.queue == nil {
		return ErrQueueDisabled
	}

	stream := queue.StreamName((&task.ProductRetryTask{}).TaskType())
	consumer := fmt.Sprintf("retry-%d", os.Getpid())

	claimed, err := s.queue.AutoClaim(ctx, consumer, stream, s.minIdleTime)
	if err != nil {
		return err
	}
	if len(claimed) > 0 {
		log.Infof("🔄 Auto-claimed %d stale retry messages", len(claimed))
	}
	for i := range claimed {
		if err := s.processRetryMessage(ctx, stream, &claimed[i]); err != nil {
			return err
		}
	}

	processed := len(claimed)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.queue.GetTask(ctx, consumer, stream)
		if err != nil {
			return err
		}
		if msg == nil {
			break
		}

		if err := s.processRetryMessage(ctx, stream, msg); err != nil {
			return err
		}
		processed++
	}

	log.Infof("✅ Retry queue drained: %d messages processed", processed)
	return nil
}

func (s *Service) processRetryMessage(ctx context.Context, stream string, msg *redis.XMessage) error {
	retryTask, err := task.Decode[*task.ProductRetryTask](msg.Values)
	if err != nil {
		log.Errorf("❌ Dropping unreadable message %s: %v", msg.ID, err)
		return s.queue.AckTask(ctx, stream, msg.ID)
	}

	if err := s.retryProduct(ctx, retryTask); err != nil {
		return err
	}

	return s.queue.AckTask(ctx, stream, msg.ID)
}

func (s *Service) retryProduct(ctx context.Context, retryTask *task.ProductRetryTask) error {
	retryTask.RetryCount++

	log.Infof("🔄 Retrying %s (attempt %d)", retryTask.ProductURL, retryTask.RetryCount)

	_, err := s.processProduct(ctx, retryTask.ProductURL, retryTask.Keyword)
	if err == nil {
		log.Infof("✅ Recovered %s after %d attempts", retryTask.ProductURL, retryTask.RetryCount)
		return nil
	}
	if errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrBlocked) {
		return err
	}

	if retryTask.RetryCount >= s.maxRetries {
		log.Errorf("❌ Giving up on %s after %d attempts: %v", retryTask.ProductURL, retryTask.RetryCount, err)
		return nil
	}

	retryTask.Error = err.Error()
	s.enqueueRetry(ctx, retryTask)
	return nil
}
