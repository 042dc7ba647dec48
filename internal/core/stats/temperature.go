package stats

// Controller adjusts generation temperature from the rolling relevance
// window: sustained low relevance pushes generation toward deterministic,
// context-bound output; sustained high relevance allows more exploratory
// phrasing. It is a pure function of its inputs; the Tracker owns the
// state and feeds it the window.
type Controller struct {
	Window        int
	LowThreshold  float64
	HighThreshold float64
	Step          float64
	Min           float64
	Max           float64
}

// Next returns the temperature for the next synthesis call. It needs a
// full window of samples before it adjusts and moves at most one step
// per call, clamped to [Min, Max].
func (c Controller) Next(current float64, relevance []float64) float64 {
	if c.Window <= 0 || len(relevance) < c.Window {
		return clamp(current, c.Min, c.Max)
	}
	window := relevance[len(relevance)-c.Window:]
	var sum float64
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))

	next := current
	switch {
	case avg < c.LowThreshold:
		next = current - c.Step
	case avg > c.HighThreshold:
		next = current + c.Step
	}
	return clamp(next, c.Min, c.Max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
