package store

import (
	"errors"
	"sync"
	"time"

	"github.com/ecosphere/envcore/internal/enviro"
)

var (
	// ErrNotFound is returned when no snapshot exists for a place.
	ErrNotFound = errors.New("no environmental data for location")
)

// Snapshot is one cached environmental view of a tracked place.
type Snapshot struct {
	Place     enviro.Place          `json:"place"`
	Report    enviro.Report         `json:"report"`
	Score     enviro.ScoreBreakdown `json:"score"`
	Timestamp time.Time             `json:"timestamp"`
}

// snapshotHistory holds a time-ordered list of snapshots for one place.
type snapshotHistory struct {
	snapshots []Snapshot
}

// MemoryStore is a concurrency-safe in-memory snapshot cache with retention
// by count and by age.
type MemoryStore struct {
	mu sync.RWMutex

	data map[string]*snapshotHistory

	maxHistory int           // max snapshots per place (<= 0: unlimited)
	maxAge     time.Duration // max snapshot age (0: unlimited)
}

func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*snapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSnapshot appends a snapshot for a place and enforces retention.
func (s *MemoryStore) SaveSnapshot(place enviro.Place, snap Snapshot) {
	key := place.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &snapshotHistory{}
		s.data[key] = history
	}

	history.snapshots = append(history.snapshots, snap)

	if s.maxHistory > 0 && len(history.snapshots) > s.maxHistory {
		over := len(history.snapshots) - s.maxHistory
		history.snapshots = history.snapshots[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.snapshots); i++ {
			if !history.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.snapshots) {
			history.snapshots = history.snapshots[i:]
		}
	}
}

// GetLatest returns the most recent snapshot for a place key.
func (s *MemoryStore) GetLatest(key string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return Snapshot{}, ErrNotFound
	}
	return history.snapshots[len(history.snapshots)-1], nil
}

// GetRange returns all snapshots for a place key between from and to,
// inclusive.
func (s *MemoryStore) GetRange(key string, from, to time.Time) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []Snapshot
	for _, snap := range history.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
