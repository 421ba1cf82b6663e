package retrieval

import (
	"sync"

	"ai-companion-be/internal/pkg/logger"
)

const (
	tunerWindowSize    = 100
	tunerMinSamples    = 20
	tunerLowWatermark  = 0.35
	tunerHighWatermark = 0.65
	tunerStep          = 0.03
)

// outcome records what one search produced, for weight tuning.
type outcome struct {
	Confidence float64
	Results    int
	Sources    int
}

// Tuner adjusts fusion weights from a rolling window of search outcomes.
// Steps are small and clamped so a burst of poor queries cannot swing the
// weights; the window forgets old outcomes as new ones arrive.
type Tuner struct {
	mu     sync.Mutex
	window []outcome
	params *Params
	log    logger.ILogger
}

func NewTuner(params *Params, log logger.ILogger) *Tuner {
	return &Tuner{
		window: make([]outcome, 0, tunerWindowSize),
		params: params,
		log:    log,
	}
}

// Observe feeds one search outcome into the window and, when enough
// samples are present, nudges the weights toward breadth (low average
// confidence) or toward vector precision (high average confidence).
func (t *Tuner) Observe(o outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.window = append(t.window, o)
	if len(t.window) > tunerWindowSize {
		t.window = t.window[len(t.window)-tunerWindowSize:]
	}
	if len(t.window) < tunerMinSamples {
		return
	}

	var sum float64
	for _, w := range t.window {
		sum += w.Confidence
	}
	avg := sum / float64(len(t.window))

	switch {
	case avg < tunerLowWatermark:
		t.shift(-tunerStep, avg)
	case avg > tunerHighWatermark:
		t.shift(tunerStep, avg)
	}
}

// shift moves weight between the vector source and the breadth sources.
// A positive delta rewards vector similarity; a negative delta spreads
// weight to fulltext and web to widen recall.
func (t *Tuner) shift(delta float64, avg float64) {
	if delta > maxTuneStep {
		delta = maxTuneStep
	}
	if delta < -maxTuneStep {
		delta = -maxTuneStep
	}

	p := t.params.Snapshot()
	before := p
	p.VectorWeight += delta
	p.FullTextWeight -= delta / 2
	p.WebWeight -= delta / 2
	t.params.store(p)

	after := t.params.Snapshot()
	if after != before {
		t.log.Info("retrieval.tuner", "fusion weights adjusted", map[string]interface{}{
			"avg_confidence": avg,
			"vector":         after.VectorWeight,
			"fulltext":       after.FullTextWeight,
			"web":            after.WebWeight,
		})
	}
}
