package tyrewear

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TrendModel is a least-squares line value = Intercept + Slope*lap.
type TrendModel struct {
	Intercept float64
	Slope     float64
}

// FitTrend fits values against laps. With fewer than two distinct laps the
// line is flat at the mean value.
func FitTrend(laps, values []float64) TrendModel {
	if len(laps) == 0 || len(laps) != len(values) {
		return TrendModel{}
	}
	if !hasSpread(laps) {
		return TrendModel{Intercept: stat.Mean(values, nil)}
	}

	alpha, beta := stat.LinearRegression(laps, values, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return TrendModel{Intercept: stat.Mean(values, nil)}
	}
	return TrendModel{Intercept: alpha, Slope: beta}
}

func hasSpread(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}

func (m TrendModel) At(lap int) float64 {
	return m.Intercept + m.Slope*float64(lap)
}

// wheelTrends holds one trend per wheel.
type wheelTrends struct {
	frontLeft, frontRight, rearLeft, rearRight TrendModel
}

func fitWheels(pool []Sample) wheelTrends {
	laps := make([]float64, len(pool))
	fl := make([]float64, len(pool))
	fr := make([]float64, len(pool))
	rl := make([]float64, len(pool))
	rr := make([]float64, len(pool))
	for i, s := range pool {
		laps[i] = float64(s.Lap)
		fl[i], fr[i], rl[i], rr[i] = s.FrontLeft, s.FrontRight, s.RearLeft, s.RearRight
	}
	return wheelTrends{
		frontLeft:  FitTrend(laps, fl),
		frontRight: FitTrend(laps, fr),
		rearLeft:   FitTrend(laps, rl),
		rearRight:  FitTrend(laps, rr),
	}
}

func (w wheelTrends) predict(lap int) Sample {
	return Sample{
		Lap:         lap,
		FrontLeft:   w.frontLeft.At(lap),
		FrontRight:  w.frontRight.At(lap),
		RearLeft:    w.rearLeft.At(lap),
		RearRight:   w.rearRight.At(lap),
		IsRacingLap: true,
	}
}
