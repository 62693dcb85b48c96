package store

import (
	"errors"
	"testing"
	"time"

	"github.com/ecosphere/envcore/internal/enviro"
)

func testPlace() enviro.Place {
	return enviro.Place{
		Name:        "Delhi",
		Coordinates: enviro.Coordinates{Latitude: 28.61, Longitude: 77.21},
	}
}

func TestGetLatestAndNotFound(t *testing.T) {
	s := NewMemoryStore(10, 0)
	place := testPlace()

	if _, err := s.GetLatest(place.Key()); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty store error = %v, want ErrNotFound", err)
	}

	now := time.Now().UTC()
	s.SaveSnapshot(place, Snapshot{Place: place, Timestamp: now.Add(-time.Minute)})
	s.SaveSnapshot(place, Snapshot{Place: place, Timestamp: now})

	got, err := s.GetLatest(place.Key())
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if !got.Timestamp.Equal(now) {
		t.Errorf("latest timestamp = %v, want %v", got.Timestamp, now)
	}
}

func TestRetentionByCount(t *testing.T) {
	s := NewMemoryStore(3, 0)
	place := testPlace()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		s.SaveSnapshot(place, Snapshot{Place: place, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	snaps, err := s.GetRange(place.Key(), base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("kept %d snapshots, want 3", len(snaps))
	}
	if !snaps[0].Timestamp.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("oldest kept = %v, want the third snapshot", snaps[0].Timestamp)
	}
}

func TestGetRangeBounds(t *testing.T) {
	s := NewMemoryStore(0, 0)
	place := testPlace()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		s.SaveSnapshot(place, Snapshot{Place: place, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}

	snaps, err := s.GetRange(place.Key(), base.Add(time.Hour), base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("got %d snapshots, want 2 (bounds inclusive)", len(snaps))
	}

	if _, err := s.GetRange(place.Key(), base.Add(10*time.Hour), base.Add(11*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty range error = %v, want ErrNotFound", err)
	}
}
