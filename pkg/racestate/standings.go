package racestate

import (
	"f1racetelemetry/pkg/helper"
)

// AdjacentPositions returns the track positions within numAdjacent places of
// position. Near the front or the back of the field the window is shifted so
// it keeps min(totalCars, 2*numAdjacent+1) members inside [1, totalCars].
func AdjacentPositions(position, totalCars, numAdjacent int) []int {
	if totalCars <= 0 || position < 1 || position > totalCars {
		return []int{}
	}
	numAdjacent = min(max(numAdjacent, 0), totalCars)

	size := min(totalCars, 2*numAdjacent+1)
	lower := max(1, position-numAdjacent)
	if lower+size-1 > totalCars {
		lower = totalCars - size + 1
	}

	positions := make([]int, size)
	for i := range positions {
		positions[i] = lower + i
	}
	return positions
}

// WindowedStandings returns the cars around the player ordered by position
// and the fastest lap of the session. Deltas are rewritten as cumulative gaps
// to the player, whose own entry is "---".
func (rs *RaceState) WindowedStandings(numAdjacent int) ([]DriverSnapshot, string) {
	rs.driversMu.Lock()
	defer rs.driversMu.Unlock()

	fastestLap := helper.NoTime
	if rs.fastestIndex != nil {
		if rec, ok := rs.drivers[*rs.fastestIndex]; ok && rec.BestLap != nil {
			fastestLap = *rec.BestLap
		}
	}

	if rs.playerIndex == nil || rs.numCars == nil {
		return []DriverSnapshot{}, fastestLap
	}
	player, ok := rs.drivers[*rs.playerIndex]
	if !ok || player.Position == nil {
		return []DriverSnapshot{}, fastestLap
	}

	// The player keeps its own position while another car's update claims it.
	occupants := map[int]int{*player.Position: *rs.playerIndex}
	for _, idx := range rs.sortedIndicesNoLock() {
		rec := rs.drivers[idx]
		if rec.Position == nil {
			continue
		}
		if _, taken := occupants[*rec.Position]; !taken {
			occupants[*rec.Position] = idx
		}
	}

	standings := []DriverSnapshot{}
	playerAt := -1
	for _, pos := range AdjacentPositions(*player.Position, *rs.numCars, numAdjacent) {
		idx, ok := occupants[pos]
		if !ok {
			continue
		}
		if idx == *rs.playerIndex {
			playerAt = len(standings)
		}
		standings = append(standings, rs.drivers[idx].snapshot(idx, rs.isFastestNoLock(idx)))
	}
	if playerAt < 0 {
		return []DriverSnapshot{}, fastestLap
	}

	reframeDeltas(standings, playerAt)
	return standings, fastestLap
}

// reframeDeltas turns each raw gap to the car ahead into the cumulative gap to
// the player at standings[playerAt]. Cars ahead get negative values.
func reframeDeltas(standings []DriverSnapshot, playerAt int) {
	standings[playerAt].Delta = helper.NoTime

	soFar := 0
	behind := standings[playerAt].rawDelta
	for i := playerAt - 1; i >= 0; i-- {
		soFar -= behind
		behind = standings[i].rawDelta
		standings[i].Delta = helper.MillisecondsToDelta(soFar)
	}

	soFar = 0
	for i := playerAt + 1; i < len(standings); i++ {
		soFar += standings[i].rawDelta
		standings[i].Delta = helper.MillisecondsToDelta(soFar)
	}
}
