package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warroomhq/warroom/internal/domain"
)

// MemoryStore is a mutex-guarded map store. Values are copied on the way in
// and out so callers can't mutate shared state.
type MemoryStore struct {
	mu        sync.RWMutex
	campaigns map[string]domain.Campaign
	runs      map[string]domain.DispatchRun
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		campaigns: make(map[string]domain.Campaign),
		runs:      make(map[string]domain.DispatchRun),
	}
}

func (s *MemoryStore) SaveCampaign(_ context.Context, c *domain.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[c.ID] = *c
	return nil
}

func (s *MemoryStore) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *MemoryStore) ListCampaigns(_ context.Context) ([]*domain.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Campaign, 0, len(s.campaigns))
	for id := range s.campaigns {
		c := s.campaigns[id]
		out = append(out, &c)
	}
	// Newest first, matching the Postgres ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run *domain.DispatchRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	cp.Outcomes = append([]domain.DeliveryOutcome(nil), run.Outcomes...)
	s.runs[run.ID] = cp
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (*domain.DispatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := r
	cp.Outcomes = append([]domain.DeliveryOutcome(nil), r.Outcomes...)
	return &cp, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, campaignID string) ([]*domain.DispatchRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.DispatchRun, 0)
	for id := range s.runs {
		if s.runs[id].CampaignID != campaignID {
			continue
		}
		r := s.runs[id]
		cp := r
		cp.Outcomes = append([]domain.DeliveryOutcome(nil), r.Outcomes...)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}
