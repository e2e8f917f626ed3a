package chamber

// EventType is everything one simulated track produced. Deposits counts the
// electrons added to the raw signal, OutsideWindow those among them that
// arrived outside the time window.
type EventType struct {
	EventID       int
	Track         Track
	Clusters      []Cluster
	Electrons     int
	Results       []DriftResult
	Summary       DriftSummary
	Raw           []float64
	Signal        *ConvolvedSignal
	Crossing      ThresholdCrossing
	Edges         []Edge
	Deposits      int
	OutsideWindow int
	Error         bool
	Err           error
}

// flattenElectrons lists the electrons of all clusters in track order.
func flattenElectrons(clusters []Cluster) []Electron {
	n := 0
	for _, c := range clusters {
		n += len(c.Electrons)
	}
	electrons := make([]Electron, 0, n)
	for _, c := range clusters {
		electrons = append(electrons, c.Electrons...)
	}
	return electrons
}
