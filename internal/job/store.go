package job

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for an unknown job ID.
	ErrNotFound = errors.New("job not found")

	// ErrTerminal is returned when updating a job that is already done or failed.
	ErrTerminal = errors.New("job already finished")

	// ErrInvalidTransition is returned when an update would skip or reverse a stage.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// entry guards one record. Each job has its own lock so updates to
// different jobs never wait on each other.
type entry struct {
	mu  sync.Mutex
	rec Record
}

// Store holds all job records in memory. The map itself is protected by an
// RWMutex; lookups take the read lock only long enough to find the entry.
// A separate slice keeps submission order for stable listing.
type Store struct {
	mu    sync.RWMutex
	jobs  map[string]*entry
	order []string
	now   func() time.Time
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*entry),
		now:  time.Now,
	}
}

// Create registers a new job in StatusReceived and returns its ID.
func (s *Store) Create() string {
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &entry{rec: Record{
		ID:        id,
		Status:    StatusReceived,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.order = append(s.order, id)
	return id
}

func (s *Store) lookup(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.jobs[id]
	return e, ok
}

// Get returns a copy of the record, or false if the ID is unknown.
func (s *Store) Get(id string) (Record, bool) {
	e, ok := s.lookup(id)
	if !ok {
		return Record{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

// Update applies mutate to a copy of the record and commits it if the
// resulting status is reachable from the current one. Terminal records
// cannot be updated. The returned record is the committed state.
func (s *Store) Update(id string, mutate func(*Record)) (Record, error) {
	e, ok := s.lookup(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec.Status.Terminal() {
		return e.rec, fmt.Errorf("%w: %s is %s", ErrTerminal, id, e.rec.Status)
	}

	next := e.rec
	mutate(&next)
	next.ID = e.rec.ID
	next.CreatedAt = e.rec.CreatedAt

	if next.Status != e.rec.Status && !validTransition(e.rec.Status, next.Status) {
		return e.rec, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, e.rec.Status, next.Status)
	}

	next.UpdatedAt = s.now()
	e.rec = next
	return next, nil
}

// List returns copies of all records in submission order.
func (s *Store) List() []Record {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.jobs[id])
	}
	s.mu.RUnlock()

	out := make([]Record, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.rec)
		e.mu.Unlock()
	}
	return out
}

// Summary holds aggregate counts across all jobs.
type Summary struct {
	Total        int `json:"total"`
	Received     int `json:"received"`
	Transcribing int `json:"transcribing"`
	Thinking     int `json:"thinking"`
	Done         int `json:"done"`
	Error        int `json:"error"`
}

// Summary returns counts per status.
func (s *Store) Summary() Summary {
	var sum Summary
	for _, rec := range s.List() {
		sum.Total++
		switch rec.Status {
		case StatusReceived:
			sum.Received++
		case StatusTranscribing:
			sum.Transcribing++
		case StatusThinking:
			sum.Thinking++
		case StatusDone:
			sum.Done++
		case StatusError:
			sum.Error++
		}
	}
	return sum
}

// Len returns the number of jobs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
