package memory

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/storycraft/storycraft/pkg/models"
)

// MemStore is the in-process Store used in tests and when no store path is
// configured.
type MemStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*Record
	runs    map[string]*models.PipelineRun
}

func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string]map[string]*Record),
		runs:    make(map[string]*models.PipelineRun),
	}
}

func (s *MemStore) Put(namespace, agent string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.records[namespace] == nil {
		s.records[namespace] = make(map[string]*Record)
	}
	s.records[namespace][agent] = &Record{
		Namespace: namespace,
		Agent:     agent,
		Payload:   append(json.RawMessage(nil), payload...),
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (s *MemStore) Get(namespace, agent string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[namespace][agent]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemStore) SaveRun(run *models.PipelineRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	var cp models.PipelineRun
	if err := json.Unmarshal(data, &cp); err != nil {
		return err
	}
	s.runs[run.ID] = &cp
	return nil
}

func (s *MemStore) GetRun(id string) (*models.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *MemStore) ListRuns(limit int) ([]*models.PipelineRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]*models.PipelineRun, 0, len(s.runs))
	for _, run := range s.runs {
		cp := *run
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemStore) Close() error { return nil }
