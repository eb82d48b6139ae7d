package racestate

import (
	"f1racetelemetry/pkg/helper"

	"github.com/pkg/errors"
)

// WheelWear holds the wear percentage of each tyre.
type WheelWear struct {
	FrontLeft  float64 `json:"fl"`
	FrontRight float64 `json:"fr"`
	RearLeft   float64 `json:"rl"`
	RearRight  float64 `json:"rr"`
}

func (w WheelWear) Average() float64 {
	return (w.FrontLeft + w.FrontRight + w.RearLeft + w.RearRight) / 4.0
}

// DriverRecord is the latest known data of a car. A nil field is absent: an
// update carrying a nil field leaves the stored value untouched.
type DriverRecord struct {
	Position     *int       `json:"position,omitempty"`
	Name         *string    `json:"name,omitempty"`
	Team         *string    `json:"team,omitempty"`
	Delta        *int       `json:"delta,omitempty"` // ms to the car ahead, as reported by the game
	ERSPercent   *float64   `json:"ersPercent,omitempty"`
	BestLap      *string    `json:"bestLap,omitempty"`
	LastLap      *string    `json:"lastLap,omitempty"`
	TyreWear     *WheelWear `json:"tyreWear,omitempty"`
	TyreAge      *int       `json:"tyreAge,omitempty"`
	TyreCompound *string    `json:"tyreCompound,omitempty"`
	IsPlayer     *bool      `json:"isPlayer,omitempty"`
	CurrentLap   *int       `json:"currentLap,omitempty"`
	Penalties    *string    `json:"penalties,omitempty"`
	IsPitting    *bool      `json:"isPitting,omitempty"`
	DRSActivated *bool      `json:"drsActivated,omitempty"`
	DRSAllowed   *bool      `json:"drsAllowed,omitempty"`
	DRSDistance  *int       `json:"drsDistance,omitempty"`
	NumPitStops  *int       `json:"numPitStops,omitempty"`
}

// Ptr returns a pointer to a copy of v. Handy when building partial updates.
func Ptr[T any](v T) *T {
	return &v
}

func mergeField[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// merge copies every present field of update into r.
func (r *DriverRecord) merge(update DriverRecord) {
	mergeField(&r.Position, update.Position)
	mergeField(&r.Name, update.Name)
	mergeField(&r.Team, update.Team)
	mergeField(&r.Delta, update.Delta)
	mergeField(&r.ERSPercent, update.ERSPercent)
	mergeField(&r.BestLap, update.BestLap)
	mergeField(&r.LastLap, update.LastLap)
	mergeField(&r.TyreWear, update.TyreWear)
	mergeField(&r.TyreAge, update.TyreAge)
	mergeField(&r.TyreCompound, update.TyreCompound)
	mergeField(&r.IsPlayer, update.IsPlayer)
	mergeField(&r.CurrentLap, update.CurrentLap)
	mergeField(&r.Penalties, update.Penalties)
	mergeField(&r.IsPitting, update.IsPitting)
	mergeField(&r.DRSActivated, update.DRSActivated)
	mergeField(&r.DRSAllowed, update.DRSAllowed)
	mergeField(&r.DRSDistance, update.DRSDistance)
	mergeField(&r.NumPitStops, update.NumPitStops)
}

// clone returns a deep copy, so the caller never aliases stored values.
func (r DriverRecord) clone() DriverRecord {
	var c DriverRecord
	c.merge(r)
	return c
}

func (r DriverRecord) validate() error {
	if r.BestLap != nil {
		if _, err := helper.LapTimeToMilliseconds(*r.BestLap); err != nil {
			return errors.Wrap(ErrInvalidUpdate, err.Error())
		}
	}
	if r.LastLap != nil {
		if _, err := helper.LapTimeToMilliseconds(*r.LastLap); err != nil {
			return errors.Wrap(ErrInvalidUpdate, err.Error())
		}
	}
	if r.Position != nil && *r.Position < 0 {
		return errors.Wrapf(ErrInvalidUpdate, "negative position %d", *r.Position)
	}
	if r.CurrentLap != nil && *r.CurrentLap < 0 {
		return errors.Wrapf(ErrInvalidUpdate, "negative current lap %d", *r.CurrentLap)
	}
	return nil
}

func (r DriverRecord) bestLapMilliseconds() (int, bool) {
	if r.BestLap == nil {
		return 0, false
	}
	ms, err := helper.LapTimeToMilliseconds(*r.BestLap)
	if err != nil {
		return 0, false
	}
	return ms, true
}

// DriverSnapshot is the display-ready copy of a DriverRecord.
type DriverSnapshot struct {
	Index            int        `json:"index"`
	Position         int        `json:"position"`
	Name             string     `json:"name"`
	Team             string     `json:"team"`
	Delta            string     `json:"delta"`
	ERSPercent       string     `json:"ersPercent"`
	BestLap          string     `json:"bestLap"`
	LastLap          string     `json:"lastLap"`
	TyreWear         string     `json:"tyreWear"`
	TyreWearPerWheel *WheelWear `json:"tyreWearPerWheel,omitempty"`
	TyreAge          int        `json:"tyreAge"`
	TyreCompound     string     `json:"tyreCompound"`
	IsPlayer         bool       `json:"isPlayer"`
	IsFastest        bool       `json:"isFastest"`
	CurrentLap       int        `json:"currentLap"`
	Penalties        string     `json:"penalties"`
	IsPitting        bool       `json:"isPitting"`
	DRSActivated     bool       `json:"drsActivated"`
	DRSAllowed       bool       `json:"drsAllowed"`
	DRSDistance      int        `json:"drsDistance"`
	NumPitStops      int        `json:"numPitStops"`

	rawDelta int
}

func valueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

func (r DriverRecord) snapshot(index int, isFastest bool) DriverSnapshot {
	s := DriverSnapshot{
		Index:        index,
		Position:     valueOr(r.Position, 0),
		Name:         valueOr(r.Name, ""),
		Team:         valueOr(r.Team, ""),
		BestLap:      valueOr(r.BestLap, helper.NoTime),
		LastLap:      valueOr(r.LastLap, helper.NoTime),
		TyreAge:      valueOr(r.TyreAge, 0),
		TyreCompound: valueOr(r.TyreCompound, ""),
		IsPlayer:     valueOr(r.IsPlayer, false),
		IsFastest:    isFastest,
		CurrentLap:   valueOr(r.CurrentLap, 0),
		Penalties:    valueOr(r.Penalties, ""),
		IsPitting:    valueOr(r.IsPitting, false),
		DRSActivated: valueOr(r.DRSActivated, false),
		DRSAllowed:   valueOr(r.DRSAllowed, false),
		DRSDistance:  valueOr(r.DRSDistance, 0),
		NumPitStops:  valueOr(r.NumPitStops, 0),
		rawDelta:     valueOr(r.Delta, 0),
	}
	s.Delta = helper.MillisecondsToDelta(s.rawDelta)
	if r.ERSPercent != nil {
		s.ERSPercent = helper.ToPercentage(*r.ERSPercent)
	}
	if r.TyreWear != nil {
		wear := *r.TyreWear
		s.TyreWearPerWheel = &wear
		s.TyreWear = helper.ToPercentage(wear.Average())
	}
	return s
}
