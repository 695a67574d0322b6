package codecstats

import (
	"sort"
	"sync"
)

// Stat is a point-in-time view of extraction performance for one codec.
type Stat struct {
	CodecName    string  `json:"codecName"`
	TotalTimeMs  int64   `json:"totalTimeMs"`
	SampleCount  int64   `json:"sampleCount"`
	SuccessCount int64   `json:"successCount"`
	AvgTimeMs    float64 `json:"avgTimeMs"`
	SuccessRate  float64 `json:"successRate"`
}

type entry struct {
	totalTimeMs  int64
	sampleCount  int64
	successCount int64
}

// Tracker accumulates frame-extraction timings keyed by codec name. All
// mutation goes through a single mutex; updates are infrequent relative to
// the cost of an extraction, so contention is not a concern.
//
// Construct one per process and inject it wherever extraction happens, so
// tests can reset it without touching global state.
type Tracker struct {
	mu    sync.Mutex
	stats map[string]*entry
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{stats: make(map[string]*entry)}
}

// Record adds one observation for the given codec. Entries are created
// lazily on first observation.
func (t *Tracker) Record(codecName string, elapsedMs int64, success bool) {
	if codecName == "" {
		codecName = "unknown"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.stats[codecName]
	if !ok {
		e = &entry{}
		t.stats[codecName] = e
	}
	e.totalTimeMs += elapsedMs
	e.sampleCount++
	if success {
		e.successCount++
	}
}

// Snapshot returns a point-in-time copy of all codec statistics, sorted by
// codec name. The returned slice shares nothing with the tracker, so a
// concurrent Record cannot corrupt a consumer's view.
func (t *Tracker) Snapshot() []Stat {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Stat, 0, len(t.stats))
	for name, e := range t.stats {
		s := Stat{
			CodecName:    name,
			TotalTimeMs:  e.totalTimeMs,
			SampleCount:  e.sampleCount,
			SuccessCount: e.successCount,
		}
		if e.sampleCount > 0 {
			s.AvgTimeMs = float64(e.totalTimeMs) / float64(e.sampleCount)
			s.SuccessRate = float64(e.successCount) / float64(e.sampleCount)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CodecName < out[j].CodecName })
	return out
}

// Reset discards all accumulated statistics.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.stats = make(map[string]*entry)
	t.mu.Unlock()
}
