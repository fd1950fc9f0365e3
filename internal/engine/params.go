package engine

// Params are the named, versioned thresholds of the detection pipeline. The
// historical deployments re-derived these constants per instance; they are
// collapsed here into one tunable set so a deployment can be pinned to a
// known parameterization.
type Params struct {
	// ReportingThreshold is the regulatory reporting amount both batch
	// detectors are calibrated against.
	ReportingThreshold float64

	// Smurfing: at least SmurfMinCount transfers from one sender, each
	// individually below ReportingThreshold, summing to at least
	// SmurfSumRatio * ReportingThreshold.
	SmurfMinCount int
	SmurfSumRatio float64

	// Structuring: at least StructuringMinRepeat amounts from one sender in
	// the half-open band [StructuringBandRatio*threshold, threshold).
	StructuringBandRatio float64
	StructuringMinRepeat int

	// Cycle search bounds. Enumeration of simple cycles is exponential in
	// dense graphs; the search aborts once MaxCycles cycles have been found
	// or a path exceeds MaxCycleLength hops, and an aborted search counts as
	// "nothing found". MaxCycleLength also bounds worst-case lock hold time
	// of the pipeline.
	MinCycleLength int
	MaxCycleLength int
	MaxCycles      int
}

// DefaultParams matches the calibration the detectors shipped with:
// $10k reporting threshold, 3-transfer smurf bursts at 70% aggregate
// significance, and a structuring band starting at 85% of the threshold.
func DefaultParams() Params {
	return Params{
		ReportingThreshold:   10000,
		SmurfMinCount:        3,
		SmurfSumRatio:        0.7,
		StructuringBandRatio: 0.85,
		StructuringMinRepeat: 2,
		MinCycleLength:       3,
		MaxCycleLength:       12,
		MaxCycles:            10000,
	}
}
