package dto

type HealthResponse struct {
	Status         string `json:"status"`
	TotalChunks    int64  `json:"total_chunks"`
	TotalDocuments int64  `json:"total_documents"`
	TotalFlagged   int64  `json:"total_flagged"`
}

type LogsRequest struct {
	Level  string `query:"level" validate:"omitempty,oneof=DEBUG INFO WARN ERROR"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

type LogListResponse struct {
	Id        string                 `json:"id"` // MD5 of the raw line
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Module    string                 `json:"module"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
