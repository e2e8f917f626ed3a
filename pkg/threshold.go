package chamber

import "fmt"

// ThresholdCrossing is the first bin past a threshold. Time is the crossing
// time interpolated between the bin and the one before it.
type ThresholdCrossing struct {
	Bin   int
	Time  float64
	Found bool
}

func (c ThresholdCrossing) String() string {
	if !c.Found {
		return "no crossing"
	}
	return fmt.Sprintf("bin %d (t = %g ns)", c.Bin, c.Time)
}

// beyond reports whether v is past threshold. Negative thresholds are for
// negative going pulses.
func beyond(v, threshold float64) bool {
	if threshold < 0 {
		return v < threshold
	}
	return v > threshold
}

func crossingTime(c *ConvolvedSignal, i int, threshold float64) float64 {
	if i == 0 {
		return c.BinTime(0)
	}
	prev, cur := c.Values[i-1], c.Values[i]
	if cur == prev {
		return c.BinTime(i)
	}
	frac := (threshold - prev) / (cur - prev)
	return c.BinTime(i-1) + frac*c.BinWidth
}

// FindThresholdCrossing returns the first bin of c beyond threshold.
func FindThresholdCrossing(c *ConvolvedSignal, threshold float64) ThresholdCrossing {
	for i, v := range c.Values {
		if beyond(v, threshold) {
			return ThresholdCrossing{Bin: i, Time: crossingTime(c, i, threshold), Found: true}
		}
	}
	return ThresholdCrossing{}
}

// Edge is one threshold transition of a signal.
type Edge struct {
	ThresholdCrossing
	Leading bool
}

// ComputeThresholdCrossings returns every leading and trailing transition of
// c through threshold in time order.
func ComputeThresholdCrossings(c *ConvolvedSignal, threshold float64) []Edge {
	edges := make([]Edge, 0)
	over := false
	for i, v := range c.Values {
		now := beyond(v, threshold)
		if now == over {
			continue
		}
		if i == 0 {
			over = now
			edges = append(edges, Edge{ThresholdCrossing{Bin: 0, Time: c.BinTime(0), Found: true}, true})
			continue
		}
		edges = append(edges, Edge{ThresholdCrossing{Bin: i, Time: crossingTime(c, i, threshold), Found: true}, now})
		over = now
	}
	return edges
}
