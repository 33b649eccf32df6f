package operations

import (
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"

	"aqicli/internal/dataprocessing"
	"aqicli/internal/partition"
	"aqicli/pkg/contracts/domain"
)

// OperationStatus represents the overall run status
type OperationStatus string

const (
	OperationStatusPending   OperationStatus = "pending"
	OperationStatusRunning   OperationStatus = "running"
	OperationStatusCompleted OperationStatus = "completed"
	OperationStatusFailed    OperationStatus = "failed"
)

// State carries run status and the data handed from step to step
type State struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatus
	StartTime time.Time
	EndTime   *time.Time
	Error     error

	steps map[string]*StepState
	order []string

	Months      []domain.MonthKey
	Registry    *domain.Registry
	Results     []dataprocessing.StationResult
	Summary     dataprocessing.BatchSummary
	Enriched    *domain.EnrichedRegistry
	Features    *geojson.FeatureCollection
	Collections []partition.MonthlyCollection
	// Outputs lists every file written, in write order
	Outputs []string
}

// NewState creates the state of a run over the given month window
func NewState(id string, months []domain.MonthKey) *State {
	return &State{
		ID:     id,
		Status: OperationStatusPending,
		Months: months,
		steps:  make(map[string]*StepState),
	}
}

// Start marks the run as running
func (s *State) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = OperationStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *State) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (s *State) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = OperationStatusFailed
	s.Error = err
}

// Duration returns how long the run took, or has taken so far
func (s *State) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// GetStep returns the state of a step
func (s *State) GetStep(id string) *StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.steps[id]
}

// SetStep registers the state of a step, keeping insertion order
func (s *State) SetStep(id string, st *StepState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[id]; !ok {
		s.order = append(s.order, id)
	}
	s.steps[id] = st
}

// Steps returns step states in execution order
func (s *State) Steps() []*StepState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StepState, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.steps[id])
	}
	return out
}

// AddOutput records a written file
func (s *State) AddOutput(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Outputs = append(s.Outputs, paths...)
}
