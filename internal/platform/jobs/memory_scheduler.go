package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cakehub/api/internal/services"
)

type memoryJob struct {
	key     string
	payload services.JobPayload
	fireAt  time.Time
	seq     int
}

// MemoryScheduler is an in-process DeferredJobScheduler with a manually
// advanced clock. Jobs fire synchronously from Advance, which makes timing
// deterministic in tests.
type MemoryScheduler struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	jobs    map[string]memoryJob
	handler services.JobHandler
}

// NewMemoryScheduler creates a scheduler whose clock starts at the given time.
func NewMemoryScheduler(start time.Time) *MemoryScheduler {
	return &MemoryScheduler{
		now:  start.UTC(),
		jobs: make(map[string]memoryJob),
	}
}

// Register sets the fire callback for due jobs.
func (s *MemoryScheduler) Register(handler services.JobHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
}

func (s *MemoryScheduler) Schedule(_ context.Context, key string, payload services.JobPayload, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.jobs[key] = memoryJob{
		key:     key,
		payload: payload,
		fireAt:  s.now.Add(delay),
		seq:     s.seq,
	}
	return nil
}

func (s *MemoryScheduler) Cancel(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[key]; !ok {
		return false, nil
	}
	delete(s.jobs, key)
	return true, nil
}

// Pending reports how many jobs are still queued.
func (s *MemoryScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Now returns the scheduler's current clock reading.
func (s *MemoryScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the clock forward and fires every job due at the new time, in
// schedule order. Firing happens outside the lock so handlers may schedule or
// cancel further jobs.
func (s *MemoryScheduler) Advance(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	due := make([]memoryJob, 0)
	for key, job := range s.jobs {
		if !job.fireAt.After(s.now) {
			due = append(due, job)
			delete(s.jobs, key)
		}
	}
	handler := s.handler
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	if handler == nil {
		return
	}
	for _, job := range due {
		handler(ctx, job.payload)
	}
}
