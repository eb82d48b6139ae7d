package tyrewear

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// linearSample wears every wheel by a fixed amount per lap, the rears a
// little faster than the fronts.
func linearSample(lap int, racing bool) Sample {
	l := float64(lap)
	return Sample{Lap: lap, FrontLeft: 2 * l, FrontRight: 2*l + 1, RearLeft: 3 * l, RearRight: 3*l + 0.5, IsRacingLap: racing}
}

func safetyCarSample(lap int) Sample {
	return Sample{Lap: lap, FrontLeft: 11, FrontRight: 11, RearLeft: 16, RearRight: 16, IsRacingLap: false}
}

func mixedStint() []Sample {
	samples := []Sample{}
	for lap := 1; lap <= 5; lap++ {
		samples = append(samples, linearSample(lap, true))
	}
	for lap := 6; lap <= 8; lap++ {
		samples = append(samples, safetyCarSample(lap))
	}
	for lap := 9; lap <= 15; lap++ {
		samples = append(samples, linearSample(lap, true))
	}
	return samples
}

func TestExtrapolatorSkipsSafetyCarLaps(t *testing.T) {
	e := NewExtrapolator(mixedStint(), 20)

	assert.Equal(t, 15, e.NumSamples())
	assert.Equal(t, 12, e.PoolSize())
	assert.Equal(t, 5, e.RemainingLaps())
	require.True(t, e.IsDataSufficient())

	predictions := e.Predictions()
	require.Len(t, predictions, 5)
	for i, p := range predictions {
		lap := 16 + i
		expected := linearSample(lap, true)
		assert.Equal(t, lap, p.Lap)
		assert.True(t, p.IsRacingLap)
		assert.InDelta(t, expected.FrontLeft, p.FrontLeft, 1e-9)
		assert.InDelta(t, expected.FrontRight, p.FrontRight, 1e-9)
		assert.InDelta(t, expected.RearLeft, p.RearLeft, 1e-9)
		assert.InDelta(t, expected.RearRight, p.RearRight, 1e-9)
	}
}

func TestExtrapolatorLastLapReturnsActualSample(t *testing.T) {
	e := NewExtrapolator(nil, 5)
	for lap := 0; lap <= 5; lap++ {
		e.Append(linearSample(lap, true))
		assert.Equal(t, 5-lap, e.RemainingLaps())
	}

	predictions := e.Predictions()
	require.Len(t, predictions, 1)
	assert.Equal(t, linearSample(5, true), predictions[0])

	last, err := e.LastPrediction()
	require.NoError(t, err)
	assert.Equal(t, 5, last.Lap)
	assert.True(t, e.IsDataSufficient())
}

func TestExtrapolatorFromEmpty(t *testing.T) {
	e := NewExtrapolator(nil, 20)
	assert.False(t, e.IsDataSufficient())
	assert.Empty(t, e.Predictions())
	assert.Equal(t, 20, e.RemainingLaps())

	e.Append(linearSample(1, true))
	assert.False(t, e.IsDataSufficient())

	e.Append(linearSample(2, true))
	require.True(t, e.IsDataSufficient())
	assert.Len(t, e.Predictions(), 18)

	first, err := e.Prediction(3)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, first.FrontLeft, 1e-9)
}

func TestExtrapolatorSinglePointIsFlat(t *testing.T) {
	e := NewExtrapolator([]Sample{linearSample(4, true)}, 8)

	assert.False(t, e.IsDataSufficient())
	predictions := e.Predictions()
	require.Len(t, predictions, 4)
	for _, p := range predictions {
		assert.Equal(t, 8.0, p.FrontLeft)
		assert.Equal(t, 12.0, p.RearLeft)
		assert.False(t, math.IsNaN(p.RearRight))
	}
}

func TestExtrapolatorOnlyNonRacingLaps(t *testing.T) {
	e := NewExtrapolator([]Sample{safetyCarSample(1), safetyCarSample(2)}, 10)

	assert.Equal(t, 0, e.PoolSize())
	assert.False(t, e.IsDataSufficient())
	assert.Empty(t, e.Predictions())

	_, err := e.LastPrediction()
	assert.True(t, errors.Is(err, ErrNoPrediction))
}

func TestExtrapolatorPrediction(t *testing.T) {
	e := NewExtrapolator([]Sample{linearSample(1, true), linearSample(2, true)}, 6)

	tests := map[string]struct {
		lap    int
		target error
	}{
		"first forecast lap": {lap: 3},
		"last forecast lap":  {lap: 6},
		"beyond race end":    {lap: 7, target: ErrLapNotFound},
		"already run":        {lap: 2, target: ErrLapNotFound},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := e.Prediction(test.lap)
			if test.target != nil {
				assert.True(t, errors.Is(err, test.target), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.lap, p.Lap)
		})
	}

	_, err := e.Prediction(9)
	assert.Contains(t, err.Error(), "max lap number is 6")
}

func TestExtrapolatorClearKeepsTotalLaps(t *testing.T) {
	e := NewExtrapolator(mixedStint(), 20)
	e.Clear()

	assert.Equal(t, 0, e.NumSamples())
	assert.Equal(t, 20, e.TotalLaps())
	assert.Equal(t, 20, e.RemainingLaps())
	assert.False(t, e.IsDataSufficient())
	assert.Empty(t, e.Predictions())

	e.Append(linearSample(1, true), linearSample(2, true))
	assert.True(t, e.IsDataSufficient())
}

func TestPredictionsIsACopy(t *testing.T) {
	e := NewExtrapolator([]Sample{linearSample(1, true), linearSample(2, true)}, 4)
	predictions := e.Predictions()
	predictions[0].Lap = 99

	p, err := e.Prediction(3)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Lap)
}

func TestSamplesIsACopy(t *testing.T) {
	e := NewExtrapolator(mixedStint(), 20)
	samples := e.Samples()
	require.Len(t, samples, 15)
	samples[0].Lap = 99

	assert.Equal(t, mixedStint(), e.Samples())
}

func TestInitialSamplesAreCopied(t *testing.T) {
	initial := []Sample{linearSample(1, true), linearSample(2, true)}
	e := NewExtrapolator(initial, 4)
	initial[1].Lap = 4

	assert.Equal(t, 2, e.RemainingLaps())
	e.Append(linearSample(3, true))
	assert.Equal(t, 1, e.RemainingLaps())
}
