package progress

import "sync"

// Threshold is a celebrated progress level.
type Threshold string

const (
	ThresholdHalfway  Threshold = "50%"
	ThresholdComplete Threshold = "100%"
)

// Band is the per-pathway progress state used to detect threshold crossings.
type Band int

const (
	BandBelowHalf Band = iota
	BandHalfway
	BandComplete
)

func (b Band) String() string {
	switch b {
	case BandHalfway:
		return "halfway"
	case BandComplete:
		return "complete"
	default:
		return "below_half"
	}
}

// BandFor places a percentage in its band.
func BandFor(pct int) Band {
	switch {
	case pct >= 100:
		return BandComplete
	case pct >= 50:
		return BandHalfway
	default:
		return BandBelowHalf
	}
}

// Tracker fires threshold events when a pathway's percentage moves up into a
// higher band. The first observation of a pathway only records its band, so
// loading a dashboard never celebrates progress made earlier. Moving down is
// silent and re-arms the thresholds above. Safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	bands map[string]Band
}

func NewTracker() *Tracker {
	return &Tracker{bands: map[string]Band{}}
}

// Observe records pct for pathwayID and returns the thresholds crossed
// since the previous observation. Jumping straight from below 50% to 100%
// fires only the 100% threshold.
func (t *Tracker) Observe(pathwayID string, pct int) []Threshold {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := BandFor(pct)
	prev, seen := t.bands[pathwayID]
	t.bands[pathwayID] = next
	if !seen || next <= prev {
		return nil
	}

	switch next {
	case BandComplete:
		return []Threshold{ThresholdComplete}
	case BandHalfway:
		return []Threshold{ThresholdHalfway}
	}
	return nil
}

// Band returns the last recorded band for pathwayID.
func (t *Tracker) Band(pathwayID string) (Band, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.bands[pathwayID]
	return b, ok
}

// Reset forgets pathwayID so the next observation is treated as first sight.
func (t *Tracker) Reset(pathwayID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.bands, pathwayID)
}
