package render

import (
	"bytes"
	"fmt"
	"strings"

	"f1racetelemetry/pkg/helper"
	"f1racetelemetry/pkg/racestate"

	"github.com/jedib0t/go-pretty/v6/table"
)

const (
	tableDriver = "PIL"

	symbolPlayer  = ">"
	symbolFastest = "*"
	symbolPitting = "PIT"
)

// RaceTable renders windowed standings as a text table followed by the
// fastest lap of the session.
func RaceTable(standings []racestate.DriverSnapshot, fastestLap string) string {
	var b bytes.Buffer
	t := table.NewWriter()
	t.SetOutputMirror(&b)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"P", tableDriver, "Delta", "Last", "Best", "Tyre", "Wear", "ERS", "Pen"})

	for _, d := range standings {
		position := fmt.Sprintf("%d", d.Position)
		if d.IsPlayer {
			position = symbolPlayer + position
		}
		best := d.BestLap
		if d.IsFastest {
			best += symbolFastest
		}
		tyre := d.TyreCompound
		if d.IsPitting {
			tyre = strings.TrimSpace(tyre + " " + symbolPitting)
		}
		t.AppendRow(table.Row{
			position,
			helper.GetDriverCodeName(d.Name),
			d.Delta,
			d.LastLap,
			best,
			fmt.Sprintf("%s (%d)", tyre, d.TyreAge),
			d.TyreWear,
			d.ERSPercent,
			d.Penalties,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", fastestLap})
	t.Render()

	return b.String()
}
