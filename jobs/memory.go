package jobs

import (
	"context"
	"sync"
)

// MemoryStore keeps jobs in a process-local map. State is lost on restart;
// set REDIS_ADDR to use the Redis-backed store instead.
type MemoryStore struct {
	mutex sync.RWMutex
	jobs  map[string]Job
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]Job)}
}

func (s *MemoryStore) Create(_ context.Context, job Job) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.jobs[job.ID] = job
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Job, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	job, found := s.jobs[id]
	return job, found, nil
}

func (s *MemoryStore) Update(_ context.Context, job Job) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.jobs[job.ID] = job
	return nil
}
