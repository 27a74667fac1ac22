package memory

import (
	"time"

	"legal-indexer-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// JobCache keeps recent job snapshots so polling clients do not hit the store on every read.
type JobCache struct {
	cache *cache.Cache
}

func NewJobCache(ttl time.Duration) *JobCache {
	return &JobCache{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (c *JobCache) Save(job *entity.Job) {
	snapshot := *job
	c.cache.Set(job.Id, &snapshot, cache.DefaultExpiration)
}

func (c *JobCache) Get(jobId string) (*entity.Job, bool) {
	if x, found := c.cache.Get(jobId); found {
		snapshot := *x.(*entity.Job)
		return &snapshot, true
	}
	return nil, false
}

func (c *JobCache) Delete(jobId string) {
	c.cache.Delete(jobId)
}

func (c *JobCache) Flush() {
	c.cache.Flush()
}
