package tyrewear

// SegmentedSeries is a sample sequence split into maximal runs sharing the
// racing flag. Concatenating the segments yields the original sequence.
type SegmentedSeries [][]Sample

// Segment groups consecutive samples with the same racing flag.
func Segment(samples []Sample) SegmentedSeries {
	series := SegmentedSeries{}
	start := 0
	for i := 1; i <= len(samples); i++ {
		if i == len(samples) || samples[i].IsRacingLap != samples[start].IsRacingLap {
			segment := make([]Sample, i-start)
			copy(segment, samples[start:i])
			series = append(series, segment)
			start = i
		}
	}
	return series
}

// RacingPool returns the samples of the segments made only of racing laps.
func (s SegmentedSeries) RacingPool() []Sample {
	pool := []Sample{}
	for _, segment := range s {
		if allRacing(segment) {
			pool = append(pool, segment...)
		}
	}
	return pool
}

func allRacing(segment []Sample) bool {
	for _, sample := range segment {
		if !sample.IsRacingLap {
			return false
		}
	}
	return true
}

// Flatten concatenates the segments back into one sequence.
func (s SegmentedSeries) Flatten() []Sample {
	out := []Sample{}
	for _, segment := range s {
		out = append(out, segment...)
	}
	return out
}
