package service

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"legal-indexer-be/internal/dto"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeline(t *testing.T) (IJobService, IConsumerService, *gochannel.GoChannel) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	t.Cleanup(func() { pubSub.Close() })

	factory := memory.NewRepositoryFactory(memory.NewStore())
	jobs := NewJobService(factory, pubSub, testTopic, memory.NewJobCache(time.Minute), logger.NewNopLogger())
	consumer := NewConsumerService(pubSub, testTopic, jobs, logger.NewNopLogger())
	return jobs, consumer, pubSub
}

func TestConsumerRunsSubmittedJobs(t *testing.T) {
	jobs, consumer, _ := newPipeline(t)
	jobs.RegisterHandler(entity.JobTypeBulkIndex, bulkResult(3))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	job, err := jobs.Submit(ctx, entity.BulkIndexParams{URLs: []string{"https://example.com"}})
	require.NoError(t, err)

	final, err := jobs.WaitForJob(ctx, job.Id, 5*time.Millisecond, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
	assert.Equal(t, 3, final.Result.(entity.BulkIndexResult).Indexed)
}

func TestConsumerAcksMalformedMessages(t *testing.T) {
	jobs, consumer, pubSub := newPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	require.NoError(t, pubSub.Publish(testTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	// The consumer keeps serving after dropping the bad message.
	jobs.RegisterHandler(entity.JobTypeBulkIndex, bulkResult(1))
	job, err := jobs.Submit(ctx, entity.BulkIndexParams{URLs: []string{"https://example.com"}})
	require.NoError(t, err)
	final, err := jobs.WaitForJob(ctx, job.Id, 5*time.Millisecond, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
}

func TestConsumerShutdownWaitsForRunningJobs(t *testing.T) {
	jobs, consumer, _ := newPipeline(t)
	started := make(chan struct{})
	release := make(chan struct{})
	jobs.RegisterHandler(entity.JobTypeBulkIndex, func(ctx context.Context, job *entity.Job) (entity.JobResult, error) {
		close(started)
		<-release
		return entity.BulkIndexResult{Indexed: 1}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, consumer.Consume(ctx))

	job, err := jobs.Submit(ctx, entity.BulkIndexParams{URLs: []string{"https://example.com"}})
	require.NoError(t, err)
	<-started

	// Cancelling the consumer context must not abort the running job.
	cancel()

	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()
	assert.ErrorIs(t, consumer.Shutdown(shortCtx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, consumer.Shutdown(context.Background()))

	final, err := jobs.GetJob(context.Background(), job.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, final.Status)
}

func TestConsumeAfterShutdown(t *testing.T) {
	_, consumer, _ := newPipeline(t)
	require.NoError(t, consumer.Shutdown(context.Background()))
	assert.ErrorIs(t, consumer.Consume(context.Background()), ErrConsumerClosed)
}

func TestMessageAfterShutdownIsNotRun(t *testing.T) {
	jobs, consumer, _ := newPipeline(t)
	calls := 0
	jobs.RegisterHandler(entity.JobTypeBulkIndex, func(ctx context.Context, job *entity.Job) (entity.JobResult, error) {
		calls++
		return entity.BulkIndexResult{}, nil
	})

	job, err := jobs.Submit(context.Background(), entity.BulkIndexParams{URLs: []string{"https://example.com"}})
	require.NoError(t, err)
	require.NoError(t, consumer.Shutdown(context.Background()))

	// A message already pulled off the topic reaches processMessage after Shutdown returned.
	payload, err := json.Marshal(dto.DispatchJobMessage{JobId: job.Id})
	require.NoError(t, err)
	cs := consumer.(*consumerService)
	cs.processMessage(context.Background(), message.NewMessage(watermill.NewUUID(), payload))

	assert.False(t, cs.track())
	cs.inflight.Wait()
	assert.Zero(t, calls)

	got, err := jobs.GetJob(context.Background(), job.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, got.Status)
}

func TestShutdownWaitsForEveryTrackedJob(t *testing.T) {
	for i := 0; i < 50; i++ {
		_, consumer, _ := newPipeline(t)
		cs := consumer.(*consumerService)

		var finished atomic.Bool
		tracked := make(chan bool, 1)
		go func() {
			ok := cs.track()
			tracked <- ok
			if ok {
				time.Sleep(time.Millisecond)
				finished.Store(true)
				cs.inflight.Done()
			}
		}()

		require.NoError(t, consumer.Shutdown(context.Background()))
		if <-tracked {
			assert.True(t, finished.Load(), "Shutdown returned before a tracked job finished")
		}
	}
}
