package tyrewear

import (
	"fmt"
)

// Sample is the tyre wear of each wheel at the end of a lap, in percent.
type Sample struct {
	Lap        int     `json:"lap-number"`
	FrontLeft  float64 `json:"fl-tyre-wear"`
	FrontRight float64 `json:"fr-tyre-wear"`
	RearLeft   float64 `json:"rl-tyre-wear"`
	RearRight  float64 `json:"rr-tyre-wear"`
	// IsRacingLap is false for laps run behind a safety car or a virtual one.
	IsRacingLap bool   `json:"is-racing-lap"`
	Desc        string `json:"desc,omitempty"`
}

func (s Sample) Average() float64 {
	return (s.FrontLeft + s.FrontRight + s.RearLeft + s.RearRight) / 4.0
}

func (s Sample) String() string {
	return fmt.Sprintf("Lap %d: FL %.2f, FR %.2f, RL %.2f, RR %.2f, Average %.2f",
		s.Lap, s.FrontLeft, s.FrontRight, s.RearLeft, s.RearRight, s.Average())
}
