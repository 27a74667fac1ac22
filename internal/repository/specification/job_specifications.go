package specification

import "gorm.io/gorm"

type ByJobId struct {
	JobId string
}

func (s ByJobId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("job_id = ?", s.JobId)
}

type ByStatuses struct {
	Statuses []string
}

func (s ByStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}
