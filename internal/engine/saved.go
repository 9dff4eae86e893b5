package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"missionboard/internal/discovery"
	"missionboard/internal/repo"
)

var (
	// ErrSavedListLimit is returned when the registry already holds its
	// maximum number of lists.
	ErrSavedListLimit = errors.New("saved list limit reached")
	ErrNoSavedLists   = errors.New("saved lists not configured")
)

// SavedLists holds bookmark sets in memory, keyed by list id. The sets
// themselves are immutable; the registry swaps them under its lock.
type SavedLists struct {
	mu    sync.RWMutex
	lists map[string]savedEntry
	limit int
}

type savedEntry struct {
	set       discovery.SavedSet
	createdAt time.Time
	updatedAt time.Time
}

// NewSavedLists returns an empty registry holding at most limit lists.
// A limit below 1 means no cap.
func NewSavedLists(limit int) *SavedLists {
	return &SavedLists{lists: make(map[string]savedEntry), limit: limit}
}

func (s *SavedLists) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lists)
}

func (e Engine) saved() (*SavedLists, error) {
	if e.Saved == nil {
		return nil, ErrNoSavedLists
	}
	return e.Saved, nil
}

type SavedList struct {
	ID         string        `json:"id"`
	MissionIDs []string      `json:"mission_ids"`
	Missions   []MissionCard `json:"missions"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CreateSavedList starts an empty list, optionally pre-filled with
// missionIDs. Every id must exist.
func (e Engine) CreateSavedList(ctx context.Context, missionIDs []string) (SavedList, error) {
	s, err := e.saved()
	if err != nil {
		return SavedList{}, err
	}
	for _, id := range missionIDs {
		if _, err := e.Repo.GetMission(ctx, id); err != nil {
			return SavedList{}, err
		}
	}
	now := e.now().UTC()
	id := uuid.NewString()
	entry := savedEntry{set: discovery.NewSavedSet(missionIDs...), createdAt: now, updatedAt: now}

	s.mu.Lock()
	if s.limit > 0 && len(s.lists) >= s.limit {
		s.mu.Unlock()
		e.logger().Warn("saved list limit reached", zap.Int("limit", s.limit))
		return SavedList{}, ErrSavedListLimit
	}
	s.lists[id] = entry
	s.mu.Unlock()

	e.logger().Info("saved list created", zap.String("list_id", id), zap.Int("missions", entry.set.Len()))
	return e.savedView(ctx, id, entry)
}

func (e Engine) SavedList(ctx context.Context, id string) (SavedList, error) {
	s, err := e.saved()
	if err != nil {
		return SavedList{}, err
	}
	s.mu.RLock()
	entry, ok := s.lists[id]
	s.mu.RUnlock()
	if !ok {
		return SavedList{}, repo.ErrNotFound
	}
	return e.savedView(ctx, id, entry)
}

// SaveMission bookmarks missionID. Saving twice is a no-op.
func (e Engine) SaveMission(ctx context.Context, listID, missionID string) (SavedList, error) {
	if _, err := e.saved(); err != nil {
		return SavedList{}, err
	}
	if _, err := e.Repo.GetMission(ctx, missionID); err != nil {
		return SavedList{}, err
	}
	return e.updateSaved(ctx, listID, func(set discovery.SavedSet) discovery.SavedSet {
		return set.Add(missionID)
	})
}

// UnsaveMission drops missionID. Removing an absent id is a no-op.
func (e Engine) UnsaveMission(ctx context.Context, listID, missionID string) (SavedList, error) {
	return e.updateSaved(ctx, listID, func(set discovery.SavedSet) discovery.SavedSet {
		return set.Remove(missionID)
	})
}

func (e Engine) updateSaved(ctx context.Context, listID string, fn func(discovery.SavedSet) discovery.SavedSet) (SavedList, error) {
	s, err := e.saved()
	if err != nil {
		return SavedList{}, err
	}
	s.mu.Lock()
	entry, ok := s.lists[listID]
	if !ok {
		s.mu.Unlock()
		return SavedList{}, repo.ErrNotFound
	}
	entry.set = fn(entry.set)
	entry.updatedAt = e.now().UTC()
	s.lists[listID] = entry
	s.mu.Unlock()
	return e.savedView(ctx, listID, entry)
}

func (e Engine) savedView(ctx context.Context, id string, entry savedEntry) (SavedList, error) {
	ids := entry.set.IDs()
	now := e.now()
	cards := make([]MissionCard, 0, len(ids))
	for _, mid := range ids {
		m, err := e.Repo.GetMission(ctx, mid)
		if err != nil {
			return SavedList{}, err
		}
		cards = append(cards, e.card(m, now))
	}
	return SavedList{
		ID:         id,
		MissionIDs: ids,
		Missions:   cards,
		CreatedAt:  entry.createdAt,
		UpdatedAt:  entry.updatedAt,
	}, nil
}
