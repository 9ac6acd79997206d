package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func observeAll(tr *Tracker, id string, pcts ...int) []Threshold {
	var fired []Threshold
	for _, p := range pcts {
		fired = append(fired, tr.Observe(id, p)...)
	}
	return fired
}

func TestTracker_FiresOnUpwardCrossings(t *testing.T) {
	tr := NewTracker()
	fired := observeAll(tr, "ie-gp", 30, 45, 60, 100)
	assert.Equal(t, []Threshold{ThresholdHalfway, ThresholdComplete}, fired)
}

func TestTracker_FirstObservationIsSilent(t *testing.T) {
	tr := NewTracker()
	assert.Empty(t, tr.Observe("ie-gp", 60))
	assert.Empty(t, tr.Observe("uk-fy", 100))

	b, ok := tr.Band("uk-fy")
	assert.True(t, ok)
	assert.Equal(t, BandComplete, b)
}

func TestTracker_JumpToCompleteFiresOnlyComplete(t *testing.T) {
	tr := NewTracker()
	fired := observeAll(tr, "ie-gp", 20, 100)
	assert.Equal(t, []Threshold{ThresholdComplete}, fired)
}

func TestTracker_DropRearms(t *testing.T) {
	tr := NewTracker()
	fired := observeAll(tr, "ie-gp", 40, 60, 40, 60, 100, 80, 100)
	assert.Equal(t, []Threshold{
		ThresholdHalfway,
		ThresholdHalfway,
		ThresholdComplete,
		ThresholdComplete,
	}, fired)
}

func TestTracker_NoFireWithinBand(t *testing.T) {
	tr := NewTracker()
	assert.Empty(t, observeAll(tr, "ie-gp", 50, 60, 75, 99))
}

func TestTracker_PathwaysAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Observe("a", 40)
	tr.Observe("b", 40)
	assert.Equal(t, []Threshold{ThresholdHalfway}, tr.Observe("a", 50))
	assert.Empty(t, tr.Observe("b", 40))

	tr.Reset("a")
	assert.Empty(t, tr.Observe("a", 100))
}

func TestTracker_ConcurrentObserve(t *testing.T) {
	tr := NewTracker()
	tr.Observe("p", 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var fired []Threshold
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := tr.Observe("p", 100)
			mu.Lock()
			fired = append(fired, got...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, []Threshold{ThresholdComplete}, fired)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandBelowHalf, BandFor(0))
	assert.Equal(t, BandBelowHalf, BandFor(49))
	assert.Equal(t, BandHalfway, BandFor(50))
	assert.Equal(t, BandHalfway, BandFor(99))
	assert.Equal(t, BandComplete, BandFor(100))
	assert.Equal(t, "halfway", BandHalfway.String())
}
