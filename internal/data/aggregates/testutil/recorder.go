package testutil

import (
	"sync"
	"time"

	"github.com/monaam/reviewflow-sub000/internal/data/aggregates"
)

// Write is one observed review write.
type Write struct {
	Op      string
	Outcome string
	Took    time.Duration
}

// Recorder collects hook signals from aggregate writes.
type Recorder struct {
	mu        sync.Mutex
	writes    []Write
	conflicts map[string]int
	retries   map[string]int
}

var _ aggregates.Hooks = (*Recorder)(nil)

func (r *Recorder) ObserveOperation(name, status string, dur time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, Write{Op: name, Outcome: status, Took: dur})
}

func (r *Recorder) IncConflict(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts == nil {
		r.conflicts = map[string]int{}
	}
	r.conflicts[name]++
}

func (r *Recorder) IncRetry(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retries == nil {
		r.retries = map[string]int{}
	}
	r.retries[name]++
}

func (r *Recorder) Writes() []Write {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Write(nil), r.writes...)
}

// Outcomes lists the outcome of every write in order.
func (r *Recorder) Outcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.writes))
	for _, w := range r.writes {
		out = append(out, w.Outcome)
	}
	return out
}

func (r *Recorder) Conflicts(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflicts[op]
}

func (r *Recorder) Retries(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retries[op]
}
