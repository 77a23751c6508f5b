package predictor

// Stats holds counters collected while the predictor is trained.
type Stats struct {
	// Updates is the number of resolved branches seen.
	Updates uint64
	// Conditional is the number of resolved conditional branches.
	Conditional uint64
	// Unconditional is the number of resolved unconditional branches.
	Unconditional uint64
	// Correct is the number of branches whose prediction matched the outcome.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// LocalCorrect counts conditional branches the local predictor got right.
	LocalCorrect uint64
	// GlobalCorrect counts conditional branches the global predictor got right.
	GlobalCorrect uint64
	// ChoseLocal counts conditional branches predicted by the local predictor.
	ChoseLocal uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Updates == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Updates) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Updates == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Updates) * 100
}

// LocalAccuracy returns how often the local predictor alone was right on
// conditional branches, as a percentage.
func (s Stats) LocalAccuracy() float64 {
	if s.Conditional == 0 {
		return 0
	}
	return float64(s.LocalCorrect) / float64(s.Conditional) * 100
}

// GlobalAccuracy returns how often the global predictor alone was right on
// conditional branches, as a percentage.
func (s Stats) GlobalAccuracy() float64 {
	if s.Conditional == 0 {
		return 0
	}
	return float64(s.GlobalCorrect) / float64(s.Conditional) * 100
}
