package cron

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Job is one unit of scheduled work. Run must be safe to repeat.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order, unique by name.
type Registry struct {
	order  []string
	byName map[string]Job
}

func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("job required")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("job name required")
	}
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Select narrows the registry to the named jobs, keeping registration order.
// An empty list selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := r.byName[n]; !ok {
			return nil, fmt.Errorf("unknown job %q (known: %s)", n, strings.Join(r.names(), ", "))
		}
		want[n] = struct{}{}
	}

	selected := &Registry{byName: make(map[string]Job, len(want))}
	for _, name := range r.order {
		if _, ok := want[name]; ok {
			selected.byName[name] = r.byName[name]
			selected.order = append(selected.order, name)
		}
	}
	return selected, nil
}

func (r *Registry) names() []string {
	out := append([]string(nil), r.order...)
	sort.Strings(out)
	return out
}
