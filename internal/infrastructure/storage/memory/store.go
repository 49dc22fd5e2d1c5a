// Package memory is an in-process store used for dry runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

type Store struct {
	mu      sync.RWMutex
	items   map[string]domain.ContentItem
	cursors map[string]domain.SourceCursor
	reels   []domain.ReelIdea
	now     func() time.Time

	// FailWrites makes CreateBatch and Reels().CreateBatch return this error.
	FailWrites error
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		items:   make(map[string]domain.ContentItem),
		cursors: make(map[string]domain.SourceCursor),
		now:     time.Now,
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) Exists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok, nil
}

func (s *Store) CreateBatch(_ context.Context, items []domain.ContentItem) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return nil, s.FailWrites
	}

	var created []string
	for _, item := range items {
		if _, ok := s.items[item.ID]; ok {
			continue
		}
		s.items[item.ID] = item
		created = append(created, item.ID)
	}
	return created, nil
}

func (s *Store) ListAwaitingReels(_ context.Context, limit int) ([]domain.ContentItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ContentItem
	for _, item := range s.items {
		if item.HumanApproved && !item.ReelGenerated {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkReelGenerated(_ context.Context, id string, at time.Time) error {
	return s.update(id, func(item *domain.ContentItem) {
		ts := at.UTC()
		item.ReelGenerated = true
		item.ReelGeneratedAt = &ts
	})
}

// Approve stands in for the manual review step.
func (s *Store) Approve(_ context.Context, id string) error {
	return s.update(id, func(item *domain.ContentItem) { item.HumanApproved = true })
}

// Item returns a stored item by id.
func (s *Store) Item(id string) (domain.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

func (s *Store) update(id string, mutate func(*domain.ContentItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, domain.ErrNotFound)
	}
	mutate(&item)
	s.items[id] = item
	return nil
}

func (s *Store) Get(_ context.Context, key, sourceID string) (domain.SourceCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, ok := s.cursors[key]
	if !ok {
		now := s.now().UTC()
		cursor = domain.SourceCursor{Key: key, SourceID: sourceID, CreatedAt: now, UpdatedAt: now}
		s.cursors[key] = cursor
	}
	return cursor, nil
}

func (s *Store) Advance(_ context.Context, key string, lastProcessed *time.Time, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	cursor, ok := s.cursors[key]
	if !ok {
		cursor = domain.SourceCursor{Key: key, SourceID: key, CreatedAt: now}
	}
	if lastProcessed != nil {
		ts := lastProcessed.UTC()
		cursor.LastProcessed = domain.LaterOf(cursor.LastProcessed, &ts)
	}
	cursor.TotalItemsProcessed += int64(delta)
	cursor.UpdatedAt = now
	s.cursors[key] = cursor
	return nil
}

func (s *Store) Reels() ports.ReelRepository {
	return reelRepository{store: s}
}

// ReelsFor returns reels derived from parentID in insertion order.
func (s *Store) ReelsFor(_ context.Context, parentID string) ([]domain.ReelIdea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ReelIdea
	for _, r := range s.reels {
		if r.RawIdeaDocID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{
		ContentItems: int64(len(s.items)),
		Sources:      int64(len(s.cursors)),
	}
	for _, c := range s.cursors {
		stats.ItemsProcessed += c.TotalItemsProcessed
	}
	return stats, nil
}

type reelRepository struct {
	store *Store
}

func (r reelRepository) CreateBatch(_ context.Context, reels []domain.ReelIdea) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.FailWrites != nil {
		return r.store.FailWrites
	}
	r.store.reels = append(r.store.reels, reels...)
	return nil
}
