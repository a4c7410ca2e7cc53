package server

import (
	"sync"

	"github.com/KaramelBytes/edareport/internal/pipeline"
	"github.com/KaramelBytes/edareport/internal/plot"
)

type entry struct {
	run    *pipeline.AnalysisRun
	charts *plot.Cache
}

// Store keeps the most recent runs in memory; the oldest run is evicted once
// the limit is reached.
type Store struct {
	mu    sync.RWMutex
	limit int
	order []string
	runs  map[string]*entry
}

// NewStore returns a store holding at most limit runs.
func NewStore(limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{limit: limit, runs: make(map[string]*entry)}
}

// Add stores run, evicting the oldest runs beyond the limit.
func (s *Store) Add(run *pipeline.AnalysisRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = &entry{run: run, charts: plot.NewCache()}
	s.order = append(s.order, run.ID)
	for len(s.order) > s.limit {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Store) get(id string) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.runs[id]
	return e, ok
}

// Get returns a stored run.
func (s *Store) Get(id string) (*pipeline.AnalysisRun, bool) {
	e, ok := s.get(id)
	if !ok {
		return nil, false
	}
	return e.run, true
}

// Len reports how many runs are stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
