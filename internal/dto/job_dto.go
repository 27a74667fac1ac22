package dto

import (
	"time"

	"legal-indexer-be/internal/entity"
)

// DispatchJobMessage is the payload published on the job topic.
type DispatchJobMessage struct {
	JobId string `json:"job_id"`
}

type JobResponse struct {
	JobId     string           `json:"job_id"`
	Type      string           `json:"type"`
	Status    string           `json:"status"`
	Params    entity.JobParams `json:"params"`
	Result    entity.JobResult `json:"result"`
	Error     *string          `json:"error"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func NewJobResponse(job *entity.Job) *JobResponse {
	return &JobResponse{
		JobId:     job.Id,
		Type:      string(job.Type),
		Status:    string(job.Status),
		Params:    job.Params,
		Result:    job.Result,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
}
