package noise

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newTestEngine(capacity, window int) *Engine {
	return NewEngine(NewRingStore(capacity), window)
}

func record(t *testing.T, e *Engine, ts time.Time, db float64, loc string) {
	t.Helper()
	if err := e.Record(ts, db, loc); err != nil {
		t.Fatalf("Record(%v, %v, %q): %v", ts, db, loc, err)
	}
}

func TestLeqUniformInput(t *testing.T) {
	e := newTestEngine(100, 0)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record(t, e, base.Add(time.Duration(i)*time.Second), 60, "park")
	}

	stats, err := e.Statistics("park")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if math.Abs(stats.Leq-60) > 1e-9 {
		t.Errorf("Leq = %v, want 60", stats.Leq)
	}
}

func TestLeqBiasesTowardLouder(t *testing.T) {
	e := newTestEngine(100, 0)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	record(t, e, base, 60, "road")
	record(t, e, base.Add(time.Second), 70, "road")

	stats, err := e.Statistics("road")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}

	if stats.Leq <= 65 {
		t.Errorf("Leq = %v, want greater than arithmetic mean 65", stats.Leq)
	}
	// 10*log10((1e6+1e7)/2) = 67.40 dB
	if math.Abs(stats.Leq-67.4036) > 0.01 {
		t.Errorf("Leq = %v, want ~67.40", stats.Leq)
	}
}

func TestPercentileSingleSample(t *testing.T) {
	e := newTestEngine(100, 0)
	record(t, e, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 72, "alley")

	stats, err := e.Statistics("alley")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	for name, v := range map[string]float64{
		"l10": stats.L10, "l90": stats.L90, "lmax": stats.Lmax, "lmin": stats.Lmin,
	} {
		if v != 72 {
			t.Errorf("%s = %v, want 72", name, v)
		}
	}
}

func TestPercentileDescendingConvention(t *testing.T) {
	e := newTestEngine(100, 0)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, db := range []float64{80, 70, 60, 50, 40} {
		record(t, e, base.Add(time.Duration(i)*time.Second), db, "junction")
	}

	stats, err := e.Statistics("junction")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.L10 != 80 {
		t.Errorf("L10 = %v, want 80 (loud end)", stats.L10)
	}
	if stats.L90 != 40 {
		t.Errorf("L90 = %v, want 40 (quiet end)", stats.L90)
	}
	if stats.Lmax != 80 || stats.Lmin != 40 {
		t.Errorf("Lmax/Lmin = %v/%v, want 80/40", stats.Lmax, stats.Lmin)
	}
}

func TestWindowUsesMostRecentByTimestamp(t *testing.T) {
	e := newTestEngine(5000, DefaultWindow)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// 500 old loud samples followed by 1000 recent quiet ones.
	for i := 0; i < 500; i++ {
		record(t, e, base.Add(time.Duration(i)*time.Second), 100, "market")
	}
	for i := 0; i < 1000; i++ {
		record(t, e, base.Add(time.Hour).Add(time.Duration(i)*time.Second), 60, "market")
	}

	stats, err := e.Statistics("market")
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats.Count != DefaultWindow {
		t.Fatalf("window count = %d, want %d", stats.Count, DefaultWindow)
	}
	if math.Abs(stats.Leq-60) > 1e-9 {
		t.Errorf("Leq = %v, want 60; old samples leaked into the window", stats.Leq)
	}

	// An out-of-order old sample must not displace anything in the window.
	record(t, e, base.Add(-time.Hour), 120, "market")
	again, err := e.Statistics("market")
	if err != nil {
		t.Fatalf("Statistics after old insert: %v", err)
	}
	if again.Leq != stats.Leq || again.Lmax != stats.Lmax {
		t.Errorf("window changed after inserting an old-timestamped sample: %+v vs %+v", again, stats)
	}
}

func TestLocationFilterAndNoData(t *testing.T) {
	e := newTestEngine(100, 0)
	record(t, e, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 55, "park")

	if _, err := e.Statistics("harbor"); !errors.Is(err, ErrNoData) {
		t.Errorf("Statistics(harbor) error = %v, want ErrNoData", err)
	}

	// Empty tag selects everything.
	stats, err := e.Statistics("")
	if err != nil {
		t.Fatalf("Statistics(all): %v", err)
	}
	if stats.Location != "all" || stats.Count != 1 {
		t.Errorf("got location %q count %d, want all/1", stats.Location, stats.Count)
	}
}

func TestRecordValidation(t *testing.T) {
	e := newTestEngine(100, 0)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := e.Record(time.Time{}, 60, "x"); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("zero timestamp error = %v, want ErrInvalidSample", err)
	}
	if err := e.Record(ts, math.NaN(), "x"); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("NaN error = %v, want ErrInvalidSample", err)
	}
	if err := e.Record(ts, math.Inf(1), "x"); !errors.Is(err, ErrInvalidSample) {
		t.Errorf("Inf error = %v, want ErrInvalidSample", err)
	}

	// Out-of-band but finite values are stored without a clamp.
	if err := e.Record(ts, -12, "x"); err != nil {
		t.Errorf("negative level rejected: %v", err)
	}
	if err := e.Record(ts, 185, "x"); err != nil {
		t.Errorf("extreme level rejected: %v", err)
	}

	// Empty tag defaults to "unknown".
	if err := e.Record(ts, 50, ""); err != nil {
		t.Fatalf("Record with empty tag: %v", err)
	}
	if _, err := e.Statistics("unknown"); err != nil {
		t.Errorf("Statistics(unknown): %v", err)
	}
}

func TestLatest(t *testing.T) {
	e := newTestEngine(100, 0)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	record(t, e, base.Add(time.Minute), 62, "plaza")
	record(t, e, base, 58, "plaza") // older, arrives later

	got, err := e.Latest("plaza")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if got.Decibels != 62 {
		t.Errorf("latest sample = %v dB, want 62 (newest by timestamp)", got.Decibels)
	}

	if _, err := e.Latest("nowhere"); !errors.Is(err, ErrNoData) {
		t.Errorf("Latest(nowhere) error = %v, want ErrNoData", err)
	}
}

func TestRingStoreCapacity(t *testing.T) {
	r := NewRingStore(5)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		r.Append(Sample{Timestamp: base.Add(time.Duration(i) * time.Second), Decibels: float64(i), Location: "x"})
	}

	if r.Len() != 5 {
		t.Fatalf("Len = %d, want 5", r.Len())
	}

	samples := r.Samples("x")
	if len(samples) != 5 {
		t.Fatalf("Samples returned %d entries, want 5", len(samples))
	}
	// Oldest two were overwritten.
	if samples[0].Decibels != 2 || samples[4].Decibels != 6 {
		t.Errorf("ring kept %v..%v, want 2..6", samples[0].Decibels, samples[4].Decibels)
	}
}
