package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParamsClampOnStore(t *testing.T) {
	ps := NewParams(FusionParams{
		VectorWeight:   0.90,
		FullTextWeight: 0.01,
		GraphWeight:    0.15,
		WebWeight:      0.15,
	})

	snap := ps.Snapshot()
	assert.Equal(t, maxSourceWeight, snap.VectorWeight)
	assert.Equal(t, minSourceWeight, snap.FullTextWeight)
	assert.Equal(t, 0.15, snap.GraphWeight)
}

func TestTunerStaysWithinBounds(t *testing.T) {
	ps := NewParams(DefaultFusionParams())
	tuner := NewTuner(ps, noopLogger{})

	// A long run of hopeless queries drives weights toward breadth but
	// never below the floor.
	for i := 0; i < 500; i++ {
		tuner.Observe(outcome{Confidence: 0.05})
	}
	snap := ps.Snapshot()
	assert.GreaterOrEqual(t, snap.VectorWeight, minSourceWeight)
	assert.LessOrEqual(t, snap.FullTextWeight, maxSourceWeight)
	assert.LessOrEqual(t, snap.WebWeight, maxSourceWeight)

	// And a long run of strong queries drives them back without
	// overshooting the ceiling.
	for i := 0; i < 500; i++ {
		tuner.Observe(outcome{Confidence: 0.95})
	}
	snap = ps.Snapshot()
	assert.LessOrEqual(t, snap.VectorWeight, maxSourceWeight)
	assert.GreaterOrEqual(t, snap.FullTextWeight, minSourceWeight)
}

func TestTunerRequiresMinimumSamples(t *testing.T) {
	ps := NewParams(DefaultFusionParams())
	tuner := NewTuner(ps, noopLogger{})
	before := ps.Snapshot()

	for i := 0; i < tunerMinSamples-1; i++ {
		tuner.Observe(outcome{Confidence: 0.0})
	}

	assert.Equal(t, before, ps.Snapshot())
}

func TestTunerStepIsBounded(t *testing.T) {
	ps := NewParams(DefaultFusionParams())
	tuner := NewTuner(ps, noopLogger{})
	before := ps.Snapshot()

	for i := 0; i < tunerMinSamples; i++ {
		tuner.Observe(outcome{Confidence: 0.0})
	}
	after := ps.Snapshot()

	assert.InDelta(t, before.VectorWeight, after.VectorWeight, maxTuneStep+1e-9)
}
