package schedule

import (
	"sort"
	"sync"
	"time"
)

// Virtual is a manually advanced Clock and Scheduler for tests.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	nextID int
	jobs   map[int]*virtualJob
}

type virtualJob struct {
	id       int
	interval time.Duration
	next     time.Time
	fn       func()
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start, jobs: make(map[int]*virtualJob)}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) Every(interval time.Duration, fn func()) CancelFunc {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextID++
	id := v.nextID
	v.jobs[id] = &virtualJob{id: id, interval: interval, next: v.now.Add(interval), fn: fn}

	return func() {
		v.mu.Lock()
		delete(v.jobs, id)
		v.mu.Unlock()
	}
}

// Pending returns the number of active scheduled callbacks.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.jobs)
}

// Advance moves the clock forward by d, firing due callbacks in time order.
// Callbacks run on the caller's goroutine without the clock lock held.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	for {
		v.mu.Lock()
		job := v.nextDue(target)
		if job == nil {
			v.now = target
			v.mu.Unlock()
			return
		}
		v.now = job.next
		job.next = job.next.Add(job.interval)
		fn := job.fn
		v.mu.Unlock()

		fn()
	}
}

func (v *Virtual) nextDue(target time.Time) *virtualJob {
	due := make([]*virtualJob, 0, len(v.jobs))
	for _, j := range v.jobs {
		if !j.next.After(target) {
			due = append(due, j)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(a, b int) bool {
		if due[a].next.Equal(due[b].next) {
			return due[a].id < due[b].id
		}
		return due[a].next.Before(due[b].next)
	})
	return due[0]
}
