package service

import (
	"context"
	"time"

	"legal-indexer-be/internal/constant"
	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/internal/pkg/mailer"
	"legal-indexer-be/pkg/events"
)

const publishTimeout = 5 * time.Second

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventObserver publishes a lifecycle event for every job transition.
type EventObserver struct {
	publisher EventPublisher
	logger    logger.ILogger
}

func NewEventObserver(publisher EventPublisher, logger logger.ILogger) *EventObserver {
	return &EventObserver{publisher: publisher, logger: logger}
}

func JobEventType(status entity.JobStatus) string {
	switch status {
	case entity.JobStatusProcessing:
		return constant.EventJobStarted
	case entity.JobStatusCompleted:
		return constant.EventJobCompleted
	case entity.JobStatusFailed:
		return constant.EventJobFailed
	}
	return constant.EventJobSubmitted
}

func JobEvent(job *entity.Job) events.BaseEvent {
	data := map[string]interface{}{
		"job_id":   job.Id,
		"job_type": string(job.Type),
		"status":   string(job.Status),
	}
	if job.Result != nil {
		data["result"] = job.Result
	}
	if job.Error != nil {
		data["error"] = *job.Error
	}
	return events.NewEvent(JobEventType(job.Status), data, job.UpdatedAt)
}

func (o *EventObserver) OnJobUpdate(ctx context.Context, job *entity.Job) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := o.publisher.Publish(ctx, JobEvent(job)); err != nil {
		o.logger.Warn("EventObserver", "Failed to publish job event", map[string]interface{}{
			"job_id": job.Id,
			"status": job.Status,
			"error":  err.Error(),
		})
	}
}

// FlagSummaryObserver mails a digest when a flagging job completes with at least one flag.
type FlagSummaryObserver struct {
	mailer     mailer.IEmailService
	recipients []string
	logger     logger.ILogger
	send       func(fn func())
}

func NewFlagSummaryObserver(mailer mailer.IEmailService, recipients []string, logger logger.ILogger) *FlagSummaryObserver {
	return &FlagSummaryObserver{
		mailer:     mailer,
		recipients: recipients,
		logger:     logger,
		send:       func(fn func()) { go fn() },
	}
}

func (o *FlagSummaryObserver) OnJobUpdate(ctx context.Context, job *entity.Job) {
	if job.Status != entity.JobStatusCompleted || len(o.recipients) == 0 {
		return
	}
	result, ok := job.Result.(entity.FlagResult)
	if !ok || result.Flagged == 0 {
		return
	}
	params, _ := job.Params.(entity.FlagParams)

	summary := mailer.FlagSummary{
		JobId:      job.Id,
		ChangedLaw: params.ChangedLaw,
		TotalFound: result.TotalFound,
		Validated:  result.Validated,
		Flagged:    result.Flagged,
	}
	if params.WhatChanged != nil {
		summary.WhatChanged = *params.WhatChanged
	}
	for _, d := range result.FlaggedDocuments {
		summary.Documents = append(summary.Documents, mailer.FlaggedDocument{
			Title:            d.Title,
			URL:              d.URL,
			SuggestionsCount: d.SuggestionsCount,
		})
	}

	o.send(func() {
		if err := o.mailer.SendFlagSummary(o.recipients, summary); err != nil {
			o.logger.Error("FlagSummaryObserver", "Failed to send flag summary", map[string]interface{}{
				"job_id": job.Id,
				"error":  err.Error(),
			})
			return
		}
		o.logger.Info("FlagSummaryObserver", "Flag summary sent", map[string]interface{}{
			"job_id":     job.Id,
			"recipients": len(o.recipients),
		})
	})
}
