package reports

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ReportType classifies a civic report.
type ReportType string

const (
	TypeWaterLog   ReportType = "water_log"
	TypeVisibility ReportType = "visibility"
	TypeTreeFall   ReportType = "tree_fall"
	TypeRoadBlock  ReportType = "road_block"
)

// Severity grades a civic report.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Status tracks the lifecycle of a civic report.
type Status string

const (
	StatusActive        Status = "active"
	StatusResolved      Status = "resolved"
	StatusInvestigating Status = "investigating"
)

// Location pins a report to a point, with an optional human-readable address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// CivicReport is a citizen-submitted environmental issue.
type CivicReport struct {
	ID          string     `json:"id"`
	Location    Location   `json:"location"`
	ReportType  ReportType `json:"report_type"`
	Description string     `json:"description,omitempty"`
	Severity    Severity   `json:"severity"`
	Timestamp   time.Time  `json:"timestamp"`
	ReporterID  string     `json:"reporter_id,omitempty"`
	Status      Status     `json:"status"`
}

var (
	ErrInvalidType     = errors.New("invalid report type")
	ErrInvalidSeverity = errors.New("invalid severity")
)

// Store is the contract the in-memory store (and any future persistent
// store) must satisfy.
type Store interface {
	Create(r CivicReport) (CivicReport, error)
	Nearby(lat, lon, radius float64, status Status, limit int) []CivicReport
	All() []CivicReport
}

// MemoryStore is a concurrency-safe in-memory report store.
type MemoryStore struct {
	mu      sync.RWMutex
	reports []CivicReport
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create validates the report, fills defaults (ID, timestamp, status) and
// stores it.
func (s *MemoryStore) Create(r CivicReport) (CivicReport, error) {
	switch r.ReportType {
	case TypeWaterLog, TypeVisibility, TypeTreeFall, TypeRoadBlock:
	default:
		return CivicReport{}, fmt.Errorf("%w: %q", ErrInvalidType, r.ReportType)
	}
	switch r.Severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
	default:
		return CivicReport{}, fmt.Errorf("%w: %q", ErrInvalidSeverity, r.Severity)
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = StatusActive
	}

	s.mu.Lock()
	s.reports = append(s.reports, r)
	s.mu.Unlock()

	return r, nil
}

// Nearby returns up to limit reports with the given status inside the
// ±radius degree bounding box around (lat, lon). Bounds are inclusive.
// A limit <= 0 means no limit.
func (s *MemoryStore) Nearby(lat, lon, radius float64, status Status, limit int) []CivicReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []CivicReport
	for _, r := range s.reports {
		if status != "" && r.Status != status {
			continue
		}
		if r.Location.Latitude < lat-radius || r.Location.Latitude > lat+radius {
			continue
		}
		if r.Location.Longitude < lon-radius || r.Location.Longitude > lon+radius {
			continue
		}
		result = append(result, r)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}

// All returns a snapshot of every stored report.
func (s *MemoryStore) All() []CivicReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CivicReport, len(s.reports))
	copy(out, s.reports)
	return out
}
