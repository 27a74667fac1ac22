package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "ConsumerService"

var ErrConsumerClosed = errors.New("consumer is shutting down")

type IConsumerService interface {
	Consume(ctx context.Context) error
	// Shutdown stops taking messages and waits for running jobs until ctx is done.
	Shutdown(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	jobService IJobService
	logger     logger.ILogger

	inflight sync.WaitGroup
	closing  atomic.Bool
	cancel   context.CancelFunc
	mu       sync.Mutex
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	jobService IJobService,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		jobService: jobService,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	if cs.closing.Load() {
		return ErrConsumerClosed
	}

	subCtx, cancel := context.WithCancel(ctx)
	messages, err := cs.subscriber.Subscribe(subCtx, cs.topicName)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", cs.topicName, err)
	}

	cs.mu.Lock()
	cs.cancel = cancel
	cs.mu.Unlock()

	// Jobs outlive the subscription: once started they run to a terminal state.
	jobCtx := context.WithoutCancel(ctx)

	go func() {
		for msg := range messages {
			cs.processMessage(jobCtx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.DispatchJobMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.JobId == "" {
		cs.logger.Error(consumerModule, "Dropping malformed job message", map[string]interface{}{
			"message_id": msg.UUID,
		})
		msg.Ack()
		return
	}

	if !cs.track() {
		// Left pending; startup recovery marks it failed on the next boot.
		cs.logger.Warn(consumerModule, "Job received during shutdown", map[string]interface{}{
			"job_id": payload.JobId,
		})
		msg.Ack()
		return
	}
	msg.Ack()

	go func() {
		defer cs.inflight.Done()
		if err := cs.jobService.Run(ctx, payload.JobId); err != nil {
			level := cs.logger.Error
			if errors.Is(err, entity.ErrJobTransition) || errors.Is(err, entity.ErrJobNotFound) {
				level = cs.logger.Warn
			}
			level(consumerModule, "Job not run", map[string]interface{}{
				"job_id": payload.JobId,
				"error":  err.Error(),
			})
		}
	}()
}

// track registers a job with the in-flight group unless shutdown has begun.
// Holding mu keeps Shutdown from starting its Wait between the check and Add.
func (cs *consumerService) track() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closing.Load() {
		return false
	}
	cs.inflight.Add(1)
	return true
}

func (cs *consumerService) Shutdown(ctx context.Context) error {
	cs.mu.Lock()
	cs.closing.Store(true)
	if cs.cancel != nil {
		cs.cancel()
	}
	cs.mu.Unlock()

	done := make(chan struct{})
	go func() {
		cs.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		cs.logger.Info(consumerModule, "All running jobs finished", nil)
		return nil
	case <-ctx.Done():
		cs.logger.Warn(consumerModule, "Shutdown deadline reached with jobs still running", nil)
		return ctx.Err()
	}
}
