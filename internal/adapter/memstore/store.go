// Package memstore implements the campaign repository in memory. It
// backs the tests and any deployment that does not need durability; the
// fingerprint-uniqueness contract is enforced under a single mutex, so
// the insert-or-merge critical section holds trivially.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"promofeed/internal/core/domain"
	"promofeed/internal/core/port"
)

type fingerprintKey struct {
	source      string
	fingerprint string
}

// Store is an in-memory port.CampaignRepository.
type Store struct {
	mu          sync.Mutex
	nextID      int64
	nextAuditID int64
	campaigns   map[int64]domain.Campaign
	active      map[fingerprintKey]int64
	audit       map[int64][]domain.AuditLogEntry
	suggestions map[string]domain.AdminSuggestion
	sources     map[string]domain.Source
	sourceOrder []string
}

// New returns an empty store.
func New() *Store {
	return &Store{
		campaigns:   make(map[int64]domain.Campaign),
		active:      make(map[fingerprintKey]int64),
		audit:       make(map[int64][]domain.AuditLogEntry),
		suggestions: make(map[string]domain.AdminSuggestion),
		sources:     make(map[string]domain.Source),
	}
}

// UpsertByFingerprint implements the insert-or-merge contract under the
// store mutex.
func (s *Store) UpsertByFingerprint(_ context.Context, c domain.Campaign, now time.Time) (domain.Campaign, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fingerprintKey{source: c.SourceName, fingerprint: c.Fingerprint}
	if id, ok := s.active[key]; ok {
		merged := s.campaigns[id].Merge(c, now)
		merged.UpdatedAt = now
		s.campaigns[id] = merged
		return merged, false, nil
	}

	s.nextID++
	c.ID = s.nextID
	c.FirstSeen = now
	c.LastSeen = now
	c.UpdateCount = 0
	c.Status = domain.StatusActive
	c.CreatedAt = now
	c.UpdatedAt = now
	s.campaigns[c.ID] = c
	s.active[key] = c.ID
	return c, true, nil
}

// GetCampaign returns a campaign by id.
func (s *Store) GetCampaign(_ context.Context, id int64) (domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return domain.Campaign{}, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	return c, nil
}

// ListCampaigns returns campaigns matching the filter, newest first.
func (s *Store) ListCampaigns(_ context.Context, f port.CampaignFilter) ([]domain.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Campaign
	for _, c := range s.campaigns {
		if f.Tier != "" && c.Tier != f.Tier {
			continue
		}
		if f.Source != "" && c.SourceName != f.Source {
			continue
		}
		if f.Scope != "" && !s.sourceHasScope(c.SourceName, f.Scope) {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) sourceHasScope(sourceName, scope string) bool {
	src, ok := s.sources[sourceName]
	if !ok {
		return false
	}
	for _, sc := range src.Scopes {
		if sc == scope {
			return true
		}
	}
	return false
}

// SwapTier moves a campaign between tiers as a compare-and-swap.
// Pinned records never move.
func (s *Store) SwapTier(_ context.Context, id int64, from, to domain.FeedTier) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return false, fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	if c.Tier != from || c.Overridden {
		return false, nil
	}
	c.Tier = to
	s.campaigns[id] = c
	return true, nil
}

// SetOverride pins or clears a tier override.
func (s *Store) SetOverride(_ context.Context, id int64, tier domain.FeedTier, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return fmt.Errorf("campaign %d: %w", id, port.ErrNotFound)
	}
	if pinned {
		c.Tier = tier
	}
	c.Overridden = pinned
	s.campaigns[id] = c
	return nil
}

// ExpireLapsed marks lapsed active campaigns expired.
func (s *Store) ExpireLapsed(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, c := range s.campaigns {
		if c.Status != domain.StatusActive || !c.Lapsed(now) {
			continue
		}
		c.Status = domain.StatusExpired
		s.campaigns[id] = c
		delete(s.active, fingerprintKey{source: c.SourceName, fingerprint: c.Fingerprint})
		n++
	}
	return n, nil
}

// AppendAudit appends an audit entry.
func (s *Store) AppendAudit(_ context.Context, e domain.AuditLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAuditID++
	e.ID = s.nextAuditID
	s.audit[e.CampaignID] = append(s.audit[e.CampaignID], e)
	return nil
}

// ListAudit returns a campaign's audit entries in append order.
func (s *Store) ListAudit(_ context.Context, campaignID int64) ([]domain.AuditLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.audit[campaignID]
	out := make([]domain.AuditLogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// CreateSuggestion stores a new suggestion.
func (s *Store) CreateSuggestion(_ context.Context, sg domain.AdminSuggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[sg.ID] = sg
	return nil
}

// GetSuggestion returns a suggestion by id.
func (s *Store) GetSuggestion(_ context.Context, id string) (domain.AdminSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.suggestions[id]
	if !ok {
		return domain.AdminSuggestion{}, fmt.Errorf("suggestion %s: %w", id, port.ErrNotFound)
	}
	return sg, nil
}

// ListSuggestions returns suggestions, optionally filtered by state.
func (s *Store) ListSuggestions(_ context.Context, state string) ([]domain.AdminSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AdminSuggestion
	for _, sg := range s.suggestions {
		if state != "" && sg.State != state {
			continue
		}
		out = append(out, sg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ResolveSuggestion transitions a pending suggestion exactly once.
func (s *Store) ResolveSuggestion(_ context.Context, id string, state string, resolvedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.suggestions[id]
	if !ok {
		return fmt.Errorf("suggestion %s: %w", id, port.ErrNotFound)
	}
	if sg.State != domain.SuggestionPending {
		return fmt.Errorf("suggestion %s already %s: %w", id, sg.State, port.ErrInvalidState)
	}
	sg.State = state
	sg.ResolvedAt = resolvedAt
	s.suggestions[id] = sg
	return nil
}

// UpsertSource creates or replaces a source.
func (s *Store) UpsertSource(_ context.Context, src domain.Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[src.CanonicalName]; !ok {
		s.sourceOrder = append(s.sourceOrder, src.CanonicalName)
	}
	s.sources[src.CanonicalName] = src
	return nil
}

// ListSources returns sources in insertion order.
func (s *Store) ListSources(_ context.Context) ([]domain.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Source, 0, len(s.sourceOrder))
	for _, name := range s.sourceOrder {
		out = append(out, s.sources[name])
	}
	return out, nil
}
