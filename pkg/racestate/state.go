package racestate

import (
	"fmt"
	"sort"
	"sync"

	"f1racetelemetry/pkg/helper"

	"github.com/pkg/errors"
)

// MaxCars is the largest field a session can have.
const MaxCars = 22

var (
	ErrInvalidIndex  = errors.New("invalid car index")
	ErrInvalidUpdate = errors.New("invalid driver update")
)

// RaceState is shared by the ingestion path (writers) and the serving path
// (readers). It has two critical sections: globalsMu guards globals and
// driversMu guards everything else. Any operation holding both takes
// globalsMu first.
type RaceState struct {
	globalsMu sync.Mutex
	globals   GlobalData

	driversMu    sync.Mutex
	drivers      map[int]*DriverRecord
	playerIndex  *int
	fastestIndex *int
	numCars      *int
}

func New() *RaceState {
	return &RaceState{
		drivers: make(map[int]*DriverRecord),
	}
}

func (rs *RaceState) SetGlobals(g GlobalData) {
	g = g.clone()

	rs.globalsMu.Lock()
	defer rs.globalsMu.Unlock()
	rs.globals = g
}

// Globals returns a copy of the globals with at most maxWeatherSamples
// forecast entries and the current lap of the player.
func (rs *RaceState) Globals(maxWeatherSamples int) GlobalsSnapshot {
	rs.globalsMu.Lock()
	defer rs.globalsMu.Unlock()
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	var currentLap *int
	if rs.playerIndex != nil {
		if rec, ok := rs.drivers[*rs.playerIndex]; ok && rec.CurrentLap != nil {
			currentLap = Ptr(*rec.CurrentLap)
		}
	}

	weather := []WeatherForecastSample{}
	if maxWeatherSamples > 0 {
		n := min(maxWeatherSamples, len(rs.globals.WeatherForecast))
		weather = append(weather, rs.globals.WeatherForecast[:n]...)
	}

	return GlobalsSnapshot{
		Circuit:          rs.globals.Circuit,
		TrackTemp:        rs.globals.TrackTemp,
		EventType:        rs.globals.EventType,
		TotalLaps:        rs.globals.TotalLaps,
		PlayerCurrentLap: currentLap,
		SafetyCarStatus:  rs.globals.SafetyCarStatus,
		WeatherForecast:  weather,
	}
}

// MergeDriver creates or updates the record of a car. When isFastest is set the
// car becomes the fastest lap holder. When no holder is known yet and every
// car in [0, numCars) has reported a best lap, the holder is resolved from
// those laps and true is returned so the caller knows a fastest lap event was
// missed and has just been backfilled.
func (rs *RaceState) MergeDriver(index int, update DriverRecord, isFastest bool) (bool, error) {
	if index < 0 {
		return false, errors.Wrapf(ErrInvalidIndex, "%d", index)
	}
	if err := update.validate(); err != nil {
		return false, errors.Wrapf(err, "car %d", index)
	}

	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	rs.mergeNoLock(index, update)

	if isFastest {
		rs.fastestIndex = Ptr(index)
	}

	if rs.fastestIndex != nil || rs.numCars == nil {
		return false, nil
	}
	fastest, ok := rs.fastestOfAllCarsNoLock(*rs.numCars)
	if !ok {
		return false, nil
	}
	rs.fastestIndex = Ptr(fastest)
	return true, nil
}

func (rs *RaceState) mergeNoLock(index int, update DriverRecord) {
	rec, ok := rs.drivers[index]
	if !ok {
		c := update.clone()
		rec = &c
		rs.drivers[index] = rec
	} else {
		rec.merge(update)
	}

	if update.IsPlayer == nil {
		return
	}
	if *update.IsPlayer {
		if rs.playerIndex != nil && *rs.playerIndex != index {
			if prev, ok := rs.drivers[*rs.playerIndex]; ok {
				prev.IsPlayer = Ptr(false)
			}
		}
		rs.playerIndex = Ptr(index)
	} else if rs.playerIndex != nil && *rs.playerIndex == index {
		rs.playerIndex = nil
	}
}

// fastestOfAllCarsNoLock returns the index with the minimum best lap among
// [0, numCars), only when every one of them has reported a best lap.
func (rs *RaceState) fastestOfAllCarsNoLock(numCars int) (int, bool) {
	if numCars <= 0 {
		return 0, false
	}
	for i := 0; i < numCars; i++ {
		rec, ok := rs.drivers[i]
		if !ok || rec.BestLap == nil {
			return 0, false
		}
	}
	indices := make([]int, numCars)
	for i := range indices {
		indices[i] = i
	}
	return rs.minBestLapNoLock(indices)
}

// minBestLapNoLock scans in the given order; the first of equal times wins.
// Non positive times mean no lap has been set and are skipped.
func (rs *RaceState) minBestLapNoLock(indices []int) (int, bool) {
	found := false
	fastest, fastestMs := 0, 0
	for _, idx := range indices {
		rec, ok := rs.drivers[idx]
		if !ok {
			continue
		}
		ms, ok := rec.bestLapMilliseconds()
		if !ok || ms <= 0 {
			continue
		}
		if !found || ms < fastestMs {
			found = true
			fastest, fastestMs = idx, ms
		}
	}
	return fastest, found
}

func (rs *RaceState) sortedIndicesNoLock() []int {
	indices := make([]int, 0, len(rs.drivers))
	for idx := range rs.drivers {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	return indices
}

// RecomputeFastest rescans every record. If nobody has set a lap the current
// holder is kept.
func (rs *RaceState) RecomputeFastest() {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	rs.recomputeFastestNoLock()
}

func (rs *RaceState) recomputeFastestNoLock() {
	if fastest, ok := rs.minBestLapNoLock(rs.sortedIndicesNoLock()); ok {
		rs.fastestIndex = Ptr(fastest)
	}
}

// ClassificationEntry is one line of the final classification sent at the end
// of a session.
type ClassificationEntry struct {
	Index          int `json:"index"`
	Position       int `json:"position"`
	BestLapTimeMs  int `json:"bestLapTimeInMS"`
	PenaltySeconds int `json:"penaltiesTime"`
}

// ApplyFinalClassification merges the final results of every car. Entries are
// all validated before anything is written.
func (rs *RaceState) ApplyFinalClassification(entries []ClassificationEntry) error {
	updates := make([]DriverRecord, len(entries))
	for i, e := range entries {
		if e.Index < 0 {
			return errors.Wrapf(ErrInvalidIndex, "%d", e.Index)
		}
		bestLap, err := helper.MillisecondsToLapTime(e.BestLapTimeMs)
		if err != nil {
			return errors.Wrapf(err, "classification of car %d", e.Index)
		}
		if e.PenaltySeconds < 0 {
			return errors.Wrapf(ErrInvalidUpdate, "negative penalty %d for car %d", e.PenaltySeconds, e.Index)
		}
		penalties := ""
		if e.PenaltySeconds != 0 {
			penalties = fmt.Sprintf("(%d sec)", e.PenaltySeconds)
		}
		updates[i] = DriverRecord{
			Position:  Ptr(e.Position),
			BestLap:   Ptr(bestLap),
			Penalties: Ptr(penalties),
		}
		if err := updates[i].validate(); err != nil {
			return errors.Wrapf(err, "classification of car %d", e.Index)
		}
	}

	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	for i, e := range entries {
		rs.mergeNoLock(e.Index, updates[i])
	}
	if rs.fastestIndex == nil {
		rs.recomputeFastestNoLock()
	}
	return nil
}

func (rs *RaceState) SetNumCars(n int) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()
	rs.numCars = Ptr(n)
}

// Clear forgets every driver, the player, the fastest lap holder and the car
// count. Globals are kept.
func (rs *RaceState) Clear() {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	rs.drivers = make(map[int]*DriverRecord)
	rs.playerIndex = nil
	rs.fastestIndex = nil
	rs.numCars = nil
}

func (rs *RaceState) PlayerIndex() (int, bool) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()
	return deref(rs.playerIndex)
}

func (rs *RaceState) FastestIndex() (int, bool) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()
	return deref(rs.fastestIndex)
}

func (rs *RaceState) NumCars() (int, bool) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()
	return deref(rs.numCars)
}

func deref(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Record returns a copy of the raw record of a car.
func (rs *RaceState) Record(index int) (DriverRecord, bool) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	rec, ok := rs.drivers[index]
	if !ok {
		return DriverRecord{}, false
	}
	return rec.clone(), true
}

func (rs *RaceState) IsDriverIndexValid(index int) bool {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	_, ok := rs.drivers[index]
	return ok
}

// Driver returns the snapshot of a single car. Its delta is the raw gap to the
// car ahead.
func (rs *RaceState) Driver(index int) (DriverSnapshot, bool) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	rec, ok := rs.drivers[index]
	if !ok {
		return DriverSnapshot{}, false
	}
	return rec.snapshot(index, rs.isFastestNoLock(index)), true
}

func (rs *RaceState) isFastestNoLock(index int) bool {
	return rs.fastestIndex != nil && *rs.fastestIndex == index
}
