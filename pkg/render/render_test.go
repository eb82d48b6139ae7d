package render

import (
	"strings"
	"testing"

	"f1racetelemetry/pkg/racestate"

	"github.com/stretchr/testify/assert"
)

func TestRaceTable(t *testing.T) {
	out := RaceTable([]racestate.DriverSnapshot{
		{Position: 3, Name: "Charles Leclerc", Delta: "-0.812", LastLap: "01:31.002", BestLap: "01:30.456", IsFastest: true, TyreCompound: "Medium", TyreAge: 7, TyreWear: "12.50%", ERSPercent: "40.00%"},
		{Position: 4, Name: "Carlos Sainz", Delta: "---", LastLap: "01:31.500", BestLap: "01:30.900", IsPlayer: true, TyreCompound: "Hard", TyreAge: 3, IsPitting: true, Penalties: "(5 sec)"},
	}, "01:30.456")

	assert.Contains(t, out, "CLE")
	assert.Contains(t, out, "CSA")
	assert.Contains(t, out, ">4")
	assert.Contains(t, out, "01:30.456*")
	assert.Contains(t, out, "Hard PIT (3)")
	assert.Contains(t, out, "(5 sec)")
	assert.True(t, strings.HasPrefix(out, "╭"))
}

func TestRaceTableEmpty(t *testing.T) {
	out := RaceTable(nil, "---")
	assert.Contains(t, out, "PIL")
	assert.Contains(t, out, "---")
}
