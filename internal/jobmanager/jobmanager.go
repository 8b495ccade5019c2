// Package jobmanager implements C8: the in-process async job queue backing
// the HTTP /api/parse/async surface. It follows the teacher's job-table
// shape (internal/api/jobs.go: a mutex-guarded map, clone-on-read) but
// fronts it with a bounded worker pool built on golang.org/x/sync/semaphore
// instead of the teacher's unbounded goroutine-per-request model, per §4.8
// and §5 ("a classical bounded worker-pool pattern").
package jobmanager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jawsbaek/exam-pdf-parser/internal/exam"
	"github.com/jawsbaek/exam-pdf-parser/internal/orchestrator"
	"github.com/jawsbaek/exam-pdf-parser/internal/validator"
)

// State is one of the four monotone job states (§3.1 ParseJob).
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// jobTTL is how long a completed job's record survives before the reaper
// discards it (§4.8: "retained for a TTL of 1 hour").
const jobTTL = 1 * time.Hour

// Result bundles what a successful parse produces, for storage on a ParseJob.
type Result struct {
	Exam       *exam.ParsedExam
	Validation validator.Result
	Cost       orchestrator.CostReport
}

// ParseJob is one submitted parse request's lifecycle record.
type ParseJob struct {
	ID          string
	State       State
	ModelSpec   string
	CreatedAt   time.Time
	CompletedAt *time.Time
	Result      *Result
	Error       string
}

func (j *ParseJob) clone() *ParseJob {
	if j == nil {
		return nil
	}
	cp := *j
	return &cp
}

// Request is the work a worker executes for one submitted job.
type Request struct {
	PDFPath   string
	ModelSpec string
	Options   orchestrator.Options
}

// Manager runs a bounded worker pool over submitted parse requests. The job
// table is guarded by a single mutex; no I/O happens under that lock (§5).
type Manager struct {
	orch *orchestrator.Orchestrator
	sem  *semaphore.Weighted

	queueDepth int

	mu   sync.Mutex
	jobs map[string]*ParseJob
}

// New constructs a Manager with the given worker concurrency and maximum
// queue depth (§4.8 defaults: MAX_CONCURRENT_PARSES=4, MAX_QUEUE_DEPTH=32).
func New(orch *orchestrator.Orchestrator, maxConcurrent, maxQueueDepth int) *Manager {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if maxQueueDepth <= 0 {
		maxQueueDepth = 32
	}
	return &Manager{
		orch:       orch,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		queueDepth: maxQueueDepth,
		jobs:       make(map[string]*ParseJob),
	}
}

// Submit enqueues a parse request and returns its job id immediately. The
// actual parse runs asynchronously on a worker goroutine once a slot frees.
// Submission fails with QueueFull once MAX_QUEUE_DEPTH pending+running jobs
// are outstanding (§4.8).
func (m *Manager) Submit(req Request) (string, error) {
	if m.outstanding() >= m.queueDepth {
		return "", exam.NewQueueFullError("job queue is at capacity")
	}

	job := &ParseJob{
		ID:        uuid.NewString(),
		State:     StatePending,
		ModelSpec: req.ModelSpec,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job.ID, req)

	return job.ID, nil
}

// Get returns a copy of the job record for id, or false if it does not
// exist (never submitted, or expired past its TTL).
func (m *Manager) Get(id string) (*ParseJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// outstanding counts jobs that have not yet reached a terminal state
// (pending or running); finished jobs awaiting the reaper are not counted.
func (m *Manager) outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, j := range m.jobs {
		if j.State == StatePending || j.State == StateRunning {
			n++
		}
	}
	return n
}

func (m *Manager) run(id string, req Request) {
	ctx := context.Background()
	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.transitionFailed(id, err.Error())
		return
	}
	defer m.sem.Release(1)

	m.transitionRunning(id)

	parsedExam, validation, cost, err := m.orch.Parse(ctx, req.PDFPath, req.ModelSpec, req.Options)
	if err != nil {
		m.transitionFailed(id, err.Error())
		return
	}

	m.transitionDone(id, Result{Exam: parsedExam, Validation: validation, Cost: cost})
}

func (m *Manager) transitionRunning(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.State = StateRunning
	}
}

func (m *Manager) transitionDone(id string, result Result) {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.State = StateDone
		j.Result = &result
		j.CompletedAt = &now
	}
}

func (m *Manager) transitionFailed(id, msg string) {
	now := time.Now().UTC()
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		j.State = StateFailed
		j.Error = msg
		j.CompletedAt = &now
	}
}

// ReapExpired discards jobs that reached a terminal state more than jobTTL
// ago (§4.8, §5). Intended to run periodically from a background ticker
// started in cmd/; never performs I/O under the lock.
func (m *Manager) ReapExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, j := range m.jobs {
		if j.CompletedAt != nil && now.Sub(*j.CompletedAt) > jobTTL {
			delete(m.jobs, id)
		}
	}
}

// RunReaper blocks, sweeping expired jobs every interval, until ctx is
// canceled. Intended to be started as its own goroutine from main.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.ReapExpired(now)
		}
	}
}
