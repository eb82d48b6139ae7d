package tyrewear

import (
	"github.com/pkg/errors"
)

var (
	ErrLapNotFound  = errors.New("lap number not found in tyre wear forecast")
	ErrNoPrediction = errors.New("tyre wear forecast is empty")
)

// Extrapolator forecasts the wear of each tyre until the end of the race from
// the samples of the laps run so far. It is not safe for concurrent use.
type Extrapolator struct {
	samples       []Sample
	segments      SegmentedSeries
	pool          []Sample
	trends        *wheelTrends
	totalLaps     int
	remainingLaps int
	predictions   []Sample
}

func NewExtrapolator(initial []Sample, totalLaps int) *Extrapolator {
	e := &Extrapolator{totalLaps: totalLaps}
	e.reset(initial)
	return e
}

func (e *Extrapolator) reset(samples []Sample) {
	e.samples = append([]Sample{}, samples...)
	e.trends = nil
	e.recompute()
}

// Append adds the samples of newly completed laps and regenerates the
// forecast from the whole history.
func (e *Extrapolator) Append(samples ...Sample) {
	e.samples = append(e.samples, samples...)
	e.recompute()
}

func (e *Extrapolator) recompute() {
	e.segments = Segment(e.samples)
	e.pool = e.segments.RacingPool()

	if len(e.samples) == 0 {
		e.remainingLaps = e.totalLaps
	} else {
		e.remainingLaps = e.totalLaps - e.samples[len(e.samples)-1].Lap
	}

	if len(e.pool) > 0 {
		trends := fitWheels(e.pool)
		e.trends = &trends
	}
	e.extrapolate()
}

func (e *Extrapolator) extrapolate() {
	e.predictions = []Sample{}
	if len(e.samples) == 0 {
		return
	}
	if e.remainingLaps <= 0 {
		e.predictions = append(e.predictions, e.samples[len(e.samples)-1])
		return
	}
	if e.trends == nil {
		return
	}
	for lap := e.totalLaps - e.remainingLaps + 1; lap <= e.totalLaps; lap++ {
		e.predictions = append(e.predictions, e.trends.predict(lap))
	}
}

// IsDataSufficient reports whether enough racing laps have been seen to trust
// the forecast.
func (e *Extrapolator) IsDataSufficient() bool {
	sufficient := len(e.pool) > 1
	if sufficient && e.remainingLaps > 0 && len(e.predictions) == 0 {
		panic("tyrewear: sufficient data but no forecast for the remaining laps")
	}
	return sufficient
}

// Prediction returns the forecast for the given lap.
func (e *Extrapolator) Prediction(lap int) (Sample, error) {
	if len(e.predictions) == 0 {
		return Sample{}, ErrNoPrediction
	}
	for _, p := range e.predictions {
		if p.Lap == lap {
			return p, nil
		}
	}
	return Sample{}, errors.Wrapf(ErrLapNotFound, "lap %d, max lap number is %d",
		lap, e.predictions[len(e.predictions)-1].Lap)
}

// LastPrediction returns the forecast for the final lap of the race.
func (e *Extrapolator) LastPrediction() (Sample, error) {
	if len(e.predictions) == 0 {
		return Sample{}, ErrNoPrediction
	}
	return e.predictions[len(e.predictions)-1], nil
}

func (e *Extrapolator) Predictions() []Sample {
	return append([]Sample{}, e.predictions...)
}

// Clear drops every sample. The race length is kept.
func (e *Extrapolator) Clear() {
	e.reset(nil)
}

// Samples returns a copy of every sample seen so far.
func (e *Extrapolator) Samples() []Sample {
	return append([]Sample{}, e.samples...)
}

func (e *Extrapolator) NumSamples() int {
	return len(e.samples)
}

func (e *Extrapolator) PoolSize() int {
	return len(e.pool)
}

func (e *Extrapolator) RemainingLaps() int {
	return e.remainingLaps
}

func (e *Extrapolator) TotalLaps() int {
	return e.totalLaps
}
