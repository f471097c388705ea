package collection

import (
	"context"
	"sort"
	"sync"

	"github.com/kirinyoku/livechain-go/internal/domain"
	"github.com/kirinyoku/livechain-go/internal/repository"
	"github.com/kirinyoku/livechain-go/internal/service/places"
)

type memStore struct {
	mu        sync.Mutex
	places    map[string]domain.Place
	records   []domain.CollectibleRecord
	createErr error
	lists     int

	// listGate, when set, holds the next ListCollectiblesForUser call after
	// it has read the records until the gate is closed.
	listGate    chan struct{}
	listReading chan struct{}
}

func newMemStore(ps ...domain.Place) *memStore {
	m := &memStore{places: make(map[string]domain.Place)}
	for _, p := range ps {
		m.places[p.ID] = p
	}
	return m
}

func (m *memStore) CreateCollectible(_ context.Context, rec domain.CollectibleRecord) (*domain.CollectibleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.places[rec.PlaceID]; !ok {
		return nil, repository.ErrPlaceReference
	}
	for _, r := range m.records {
		if r.ID == rec.ID {
			return nil, repository.ErrConflict
		}
	}
	m.records = append(m.records, rec)
	return &rec, nil
}

func (m *memStore) ListCollectiblesForUser(_ context.Context, userID string) ([]domain.CollectionEntry, error) {
	m.mu.Lock()
	out := m.entriesFor(userID)
	gate, reading := m.listGate, m.listReading
	m.listGate, m.listReading = nil, nil
	m.mu.Unlock()

	if gate != nil {
		close(reading)
		<-gate
	}
	return out, nil
}

func (m *memStore) entriesFor(userID string) []domain.CollectionEntry {
	m.lists++

	out := make([]domain.CollectionEntry, 0)
	for _, r := range m.records {
		if r.UserID != userID {
			continue
		}
		e := domain.CollectionEntry{
			ID:         r.ID,
			Name:       r.Label,
			ImageURL:   r.ImageURL,
			PlaceID:    r.PlaceID,
			AcquiredAt: r.AcquiredAt,
		}
		if p, ok := m.places[r.PlaceID]; ok {
			name := p.Name
			e.PlaceName = &name
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].AcquiredAt.Equal(out[j].AcquiredAt) {
			return out[i].AcquiredAt.After(out[j].AcquiredAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) GetPlace(_ context.Context, id string) (*domain.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.places[id]
	if !ok {
		return nil, places.ErrPlaceNotFound
	}
	return &p, nil
}

func (m *memStore) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
