package livefeed

import (
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
)

// MergePositions joins each position record with the latest interval of the
// same driver. Intervals without a position record are dropped.
//
//nolint:whitespace // can't make both editor and linter happy
func MergePositions(
	positions []model.Position, intervals []model.Interval,
) []model.DriverRow {
	byDriver := store.KeyByDriver(intervals)
	ret := make([]model.DriverRow, 0, len(positions))
	for _, p := range positions {
		row := model.DriverRow{
			DriverNumber: p.DriverNumber,
			Position:     p.Position,
			Date:         p.Date,
			GapToLeader:  model.DefaultGap,
			Interval:     model.DefaultGap,
		}
		if iv, ok := byDriver[p.DriverNumber]; ok {
			row.GapToLeader = iv.GapToLeader.Display(model.DefaultGap)
			row.Interval = iv.Interval.Display(model.DefaultGap)
		}
		ret = append(ret, row)
	}
	return ret
}

// LatestStints reduces stints to the current tyre state per driver
func LatestStints(stints []model.Stint, currentLap int) []model.TyreState {
	latest := map[int]model.Stint{}
	order := []int{}
	for _, s := range stints {
		cur, ok := latest[s.DriverNumber]
		if !ok {
			order = append(order, s.DriverNumber)
		}
		if !ok || s.StintNumber >= cur.StintNumber {
			latest[s.DriverNumber] = s
		}
	}
	ret := make([]model.TyreState, 0, len(order))
	for _, d := range order {
		s := latest[d]
		lap := currentLap
		if s.LapEnd > 0 && s.LapEnd > lap {
			lap = s.LapEnd
		}
		ret = append(ret, model.TyreState{
			DriverNumber: d,
			Compound:     s.Compound,
			TyreAge:      s.TyreAge(lap),
			StintNumber:  s.StintNumber,
			LapStart:     s.LapStart,
		})
	}
	return ret
}
