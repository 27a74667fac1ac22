package dto

type BulkIndexRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,dive,required,http_url"`
}

// JobSubmittedResponse is returned by every endpoint that starts a background job.
type JobSubmittedResponse struct {
	JobId   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
