package noise

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNoData is returned when no samples match a statistics query.
	ErrNoData = errors.New("no noise data for location")

	// ErrInvalidSample is returned when a sample fails ingest validation.
	ErrInvalidSample = errors.New("invalid noise sample")
)

// DefaultWindow is the maximum number of most-recent samples a statistics
// query considers.
const DefaultWindow = 1000

// Sample is one calibrated decibel reading tagged with a location key.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	Decibels  float64   `json:"dbspl"`
	Location  string    `json:"location"`
}

// Statistics are the standard acoustic descriptors over a sample window.
// L10/L90 follow the acoustics convention: the level exceeded 10% / 90% of
// the time, so L10 sits near the loud end.
type Statistics struct {
	Location string  `json:"location"`
	Count    int     `json:"count"`
	Leq      float64 `json:"leq"`
	Lmax     float64 `json:"lmax"`
	Lmin     float64 `json:"lmin"`
	L10      float64 `json:"l10"`
	L90      float64 `json:"l90"`
}

// SampleStore is the contract the in-memory ring (and any future
// time-series backend) must satisfy. Samples returns a snapshot filtered by
// location tag; an empty tag selects everything.
type SampleStore interface {
	Append(s Sample)
	Samples(location string) []Sample
	Len() int
}

// RingStore is a concurrency-safe fixed-capacity sample buffer. Once full,
// the oldest entry by insertion order is overwritten, which bounds memory
// while keeping far more history than any statistics window reads.
type RingStore struct {
	mu    sync.RWMutex
	buf   []Sample
	head  int
	count int
}

// NewRingStore creates a ring holding at most capacity samples.
func NewRingStore(capacity int) *RingStore {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RingStore{buf: make([]Sample, capacity)}
}

func (r *RingStore) Append(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.head] = s
	r.head = (r.head + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

func (r *RingStore) Samples(location string) []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Sample, 0, r.count)
	for i := 0; i < r.count; i++ {
		s := r.buf[(r.head-r.count+i+len(r.buf))%len(r.buf)]
		if location == "" || s.Location == location {
			out = append(out, s)
		}
	}
	return out
}

func (r *RingStore) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Engine ingests decibel samples and computes windowed statistics.
type Engine struct {
	store  SampleStore
	window int
}

// NewEngine creates an Engine over the given store. window <= 0 selects
// DefaultWindow.
func NewEngine(store SampleStore, window int) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Engine{store: store, window: window}
}

// Record validates and stores one sample. Decibel values are accepted
// without a range clamp, but must be finite; a missing timestamp is
// rejected. An empty location tag is stored as "unknown".
func (e *Engine) Record(ts time.Time, decibels float64, location string) error {
	if ts.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidSample)
	}
	if math.IsNaN(decibels) || math.IsInf(decibels, 0) {
		return fmt.Errorf("%w: decibel level must be finite", ErrInvalidSample)
	}
	if location == "" {
		location = "unknown"
	}

	e.store.Append(Sample{Timestamp: ts, Decibels: decibels, Location: location})
	return nil
}

// Total returns the number of stored samples across all locations.
func (e *Engine) Total() int {
	return e.store.Len()
}

// Latest returns the most recent sample for the location tag (all samples
// when the tag is empty).
func (e *Engine) Latest(location string) (Sample, error) {
	samples := e.store.Samples(location)
	if len(samples) == 0 {
		return Sample{}, ErrNoData
	}

	latest := samples[0]
	for _, s := range samples[1:] {
		if s.Timestamp.After(latest.Timestamp) {
			latest = s
		}
	}
	return latest, nil
}

// LatestLevel adapts Latest to the report-assembly boundary.
func (e *Engine) LatestLevel(location string) (float64, bool) {
	s, err := e.Latest(location)
	if err != nil {
		return 0, false
	}
	return s.Decibels, true
}

// Statistics computes Leq, Lmax, Lmin, L10 and L90 over at most the window
// most-recent samples (by timestamp) matching the location tag. Returns
// ErrNoData when nothing matches.
func (e *Engine) Statistics(location string) (Statistics, error) {
	samples := e.store.Samples(location)
	if len(samples) == 0 {
		return Statistics{}, ErrNoData
	}

	// Most recent first; ties keep snapshot order.
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Timestamp.After(samples[j].Timestamp)
	})
	if len(samples) > e.window {
		samples = samples[:e.window]
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Decibels
	}

	loc := location
	if loc == "" {
		loc = "all"
	}

	return Statistics{
		Location: loc,
		Count:    len(values),
		Leq:      leq(values),
		Lmax:     maxOf(values),
		Lmin:     minOf(values),
		L10:      percentile(values, 0.1),
		L90:      percentile(values, 0.9),
	}, nil
}

// leq converts each sample to linear power, averages, and converts back.
// Averaging in the linear domain is what makes a loud outlier dominate, as
// it does perceptually; a plain mean of dB values would understate it.
func leq(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += math.Pow(10, v/10)
	}
	return 10 * math.Log10(sum/float64(len(values)))
}

// percentile sorts descending and indexes at floor(p*n), clamped to n-1.
// With the descending sort, p=0.1 lands near the loud end (L10) and p=0.9
// near the quiet end (L90).
func percentile(values []float64, p float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	idx := int(math.Floor(p * float64(len(sorted))))
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
