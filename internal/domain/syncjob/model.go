package syncjob

import (
	"sync"
	"time"
)

type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

type State string

const (
	StatePending             State = "pending"
	StateRunning             State = "running"
	StateCompleted           State = "completed"
	StateCompletedWithErrors State = "completed_with_errors"
)

// ItemError records one failed or unresolved item with enough context for
// manual investigation. Item errors never abort the job that collected them.
type ItemError struct {
	Provider string `json:"provider"`
	RawID    string `json:"raw_id"`
	Reason   string `json:"reason"`
}

// Conflict records two providers disagreeing on a mutable field; the engine
// keeps the previous value instead of guessing.
type Conflict struct {
	EntityID string `json:"entity_id"`
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Kept     string `json:"kept"`
	Rejected string `json:"rejected"`
}

// Job is one sync run. It only ever finishes in a completed state; failures
// are carried in the error list.
type Job struct {
	ID         string      `json:"id"`
	Mode       Mode        `json:"mode"`
	State      State       `json:"state"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Resolved   int         `json:"resolved"`
	Created    int         `json:"created"`
	Errors     []ItemError `json:"errors,omitempty"`
	Conflicts  []Conflict  `json:"conflicts,omitempty"`
}

func (j Job) Clone() Job {
	out := j
	if j.FinishedAt != nil {
		finished := *j.FinishedAt
		out.FinishedAt = &finished
	}
	out.Errors = append([]ItemError(nil), j.Errors...)
	out.Conflicts = append([]Conflict(nil), j.Conflicts...)
	return out
}

// Registry tracks job runs and rejects a second concurrent run of the same
// mode. Runs of different modes may overlap.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]*Job
	active map[Mode]string
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{
		jobs:   make(map[string]*Job),
		active: make(map[Mode]string),
	}
}

// Start registers a new run, or reports the in-flight job id for the mode.
func (r *Registry) Start(jobID string, mode Mode, now time.Time) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activeID, busy := r.active[mode]; busy {
		return false, activeID
	}

	job := &Job{
		ID:        jobID,
		Mode:      mode,
		State:     StateRunning,
		StartedAt: now,
	}
	r.jobs[jobID] = job
	r.active[mode] = jobID
	r.order = append(r.order, jobID)
	return true, jobID
}

func (r *Registry) AddError(jobID string, item ItemError) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok {
		job.Errors = append(job.Errors, item)
	}
}

func (r *Registry) AddConflict(jobID string, conflict Conflict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok {
		job.Conflicts = append(job.Conflicts, conflict)
	}
}

func (r *Registry) AddResolved(jobID string, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if job, ok := r.jobs[jobID]; ok {
		job.Resolved++
		if created {
			job.Created++
		}
	}
}

// Finish transitions the run to its terminal state. Jobs with item errors
// land in completed_with_errors, never in a hard-failed state.
func (r *Registry) Finish(jobID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return
	}

	state := StateCompleted
	if len(job.Errors) > 0 {
		state = StateCompletedWithErrors
	}
	job.State = state
	finished := now
	job.FinishedAt = &finished
	if r.active[job.Mode] == jobID {
		delete(r.active, job.Mode)
	}
}

func (r *Registry) Get(jobID string) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return Job{}, false
	}
	return job.Clone(), true
}

// LastFinished returns the most recent finished run of the given mode.
func (r *Registry) LastFinished(mode Mode) (Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for idx := len(r.order) - 1; idx >= 0; idx-- {
		job := r.jobs[r.order[idx]]
		if job.Mode == mode && job.FinishedAt != nil {
			return job.Clone(), true
		}
	}
	return Job{}, false
}
