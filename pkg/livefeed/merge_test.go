package livefeed

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

var t0 = time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)

func TestMergePositions(t *testing.T) {
	positions := []model.Position{
		{Date: t0, DriverNumber: 16, Position: 1},
		{Date: t0, DriverNumber: 81, Position: 2},
		{Date: t0, DriverNumber: 55, Position: 3},
	}
	intervals := []model.Interval{
		{Date: t0, DriverNumber: 81, GapToLeader: model.GapSeconds(7.2), Interval: model.GapSeconds(7.2)},
		{Date: t0.Add(time.Second), DriverNumber: 81, GapToLeader: model.GapSeconds(7.5), Interval: model.GapSeconds(7.5)},
		{Date: t0, DriverNumber: 55, GapToLeader: model.Gap{Text: "+1 LAP"}, Interval: model.GapSeconds(0.25)},
		{Date: t0, DriverNumber: 4, GapToLeader: model.GapSeconds(1), Interval: model.GapSeconds(1)},
	}
	want := []model.DriverRow{
		{DriverNumber: 16, Position: 1, GapToLeader: "+0.000", Interval: "+0.000", Date: t0},
		{DriverNumber: 81, Position: 2, GapToLeader: "+7.500", Interval: "+7.500", Date: t0},
		{DriverNumber: 55, Position: 3, GapToLeader: "+1 LAP", Interval: "+0.250", Date: t0},
	}
	got := MergePositions(positions, intervals)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergePositions() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, MergePositions(nil, intervals), "intervals without positions are dropped")
}

func TestLatestStints(t *testing.T) {
	stints := []model.Stint{
		{DriverNumber: 1, StintNumber: 1, LapStart: 1, LapEnd: 20, Compound: model.CompoundMedium, TyreAgeAtStart: 0},
		{DriverNumber: 44, StintNumber: 1, LapStart: 1, LapEnd: 0, Compound: model.CompoundHard, TyreAgeAtStart: 3},
		{DriverNumber: 1, StintNumber: 2, LapStart: 21, LapEnd: 30, Compound: model.CompoundHard, TyreAgeAtStart: 0},
	}
	got := LatestStints(stints, 1)
	want := []model.TyreState{
		{DriverNumber: 1, Compound: model.CompoundHard, TyreAge: 9, StintNumber: 2, LapStart: 21},
		{DriverNumber: 44, Compound: model.CompoundHard, TyreAge: 3, StintNumber: 1, LapStart: 1},
	}
	assert.Equal(t, want, got)
}
