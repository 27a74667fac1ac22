package mapper

import (
	"encoding/json"
	"fmt"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/model"

	"gorm.io/datatypes"
)

type JobMapper struct{}

func NewJobMapper() *JobMapper {
	return &JobMapper{}
}

func (m *JobMapper) ToModel(j *entity.Job) (*model.Job, error) {
	params, err := EncodeJSON(j.Params)
	if err != nil {
		return nil, fmt.Errorf("encode job params: %w", err)
	}
	result, err := EncodeJSON(j.Result)
	if err != nil {
		return nil, fmt.Errorf("encode job result: %w", err)
	}
	return &model.Job{
		JobId:     j.Id,
		Type:      string(j.Type),
		Status:    string(j.Status),
		Params:    params,
		Result:    result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}, nil
}

func (m *JobMapper) ToEntity(j *model.Job) (*entity.Job, error) {
	jobType := entity.JobType(j.Type)
	params, err := DecodeJobParams(jobType, j.Params)
	if err != nil {
		return nil, err
	}
	result, err := DecodeJobResult(jobType, j.Result)
	if err != nil {
		return nil, err
	}
	return &entity.Job{
		Id:        j.JobId,
		Type:      jobType,
		Status:    entity.JobStatus(j.Status),
		Params:    params,
		Result:    result,
		Error:     j.Error,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}, nil
}

// EncodeJSON returns nil for a nil value so empty jsonb columns stay NULL.
func EncodeJSON(v interface{}) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func DecodeJobParams(jobType entity.JobType, raw []byte) (entity.JobParams, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch jobType {
	case entity.JobTypeBulkIndex:
		var p entity.BulkIndexParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode bulk index params: %w", err)
		}
		return p, nil
	case entity.JobTypeFlagDocuments:
		var p entity.FlagParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode flag params: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", entity.ErrUnknownJobType, jobType)
}

func DecodeJobResult(jobType entity.JobType, raw []byte) (entity.JobResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	switch jobType {
	case entity.JobTypeBulkIndex:
		var r entity.BulkIndexResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode bulk index result: %w", err)
		}
		return r, nil
	case entity.JobTypeFlagDocuments:
		var r entity.FlagResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("decode flag result: %w", err)
		}
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", entity.ErrUnknownJobType, jobType)
}
