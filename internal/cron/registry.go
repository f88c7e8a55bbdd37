package cron

import "context"

// Job is a maintenance task executed by the cron worker on each tick, such
// as the audit retention purge.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker executes, in registration order.
type Registry struct {
	jobs []Job
}

// NewRegistry builds a registry from the given jobs, skipping nil entries.
func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{}
	for _, job := range jobs {
		if job != nil {
			registry.jobs = append(registry.jobs, job)
		}
	}
	return registry
}

// Register appends a job. Nil jobs are ignored.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
