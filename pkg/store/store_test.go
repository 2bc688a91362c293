//nolint:funlen,lll // ok for tests
package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

var t0 = time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func drivers(nums ...int) []model.Driver {
	ret := make([]model.Driver, len(nums))
	for i, n := range nums {
		ret[i] = model.Driver{DriverNumber: n, NameAcronym: fmt.Sprintf("D%d", n)}
	}
	return ret
}

func TestSetDrivers_AutoSelect(t *testing.T) {
	s := New()
	s.SetDrivers(nil)
	assert.Empty(t, s.Selection(), "empty list does not select")

	s.SetDrivers(drivers(44, 1, 16, 4))
	assert.Equal(t, []int{44, 1, 16}, s.Selection())

	s.SetDrivers(drivers(81, 63, 55))
	assert.Equal(t, []int{44, 1, 16}, s.Selection(), "later lists keep the selection")
	assert.Len(t, s.Snapshot().Drivers, 3)
}

func TestSetDrivers_NoAutoSelectWhenSelected(t *testing.T) {
	s := New()
	require.NoError(t, s.SetSelection([]int{63}))
	s.SetDrivers(drivers(1, 2, 3, 4))
	assert.Equal(t, []int{63}, s.Selection())

	s.DeselectDriver(63)
	s.SetDrivers(drivers(1, 2, 3, 4))
	assert.Empty(t, s.Selection(), "auto select happens only for the first list")
}

func TestSelectionBound(t *testing.T) {
	s := New(WithMaxSelection(5))
	for _, n := range []int{1, 4, 16, 44, 63} {
		require.NoError(t, s.SelectDriver(n))
	}
	assert.ErrorIs(t, s.SelectDriver(81), ErrSelectionFull)
	assert.Equal(t, []int{1, 4, 16, 44, 63}, s.Selection())

	assert.NoError(t, s.SelectDriver(44), "selecting a selected driver is no change")
	assert.ErrorIs(t, s.SetSelection([]int{1, 2, 3, 4, 5, 6}), ErrSelectionFull)
	assert.Equal(t, []int{1, 4, 16, 44, 63}, s.Selection())

	assert.NoError(t, s.SetSelection([]int{1, 1, 2}))
	assert.Equal(t, []int{1, 2}, s.Selection())
}

func TestAlerts_DedupAndCap(t *testing.T) {
	s := New()
	alerts := make([]model.Alert, 25)
	for i := range alerts {
		alerts[i] = model.Alert{Date: t0.Add(time.Duration(i) * time.Minute), Message: fmt.Sprintf("msg %d", i)}
		s.AddAlert(alerts[i])
	}
	snap := s.Snapshot()
	require.Len(t, snap.Alerts, 20)
	assert.Equal(t, "msg 24", snap.Alerts[0].Message)
	assert.Equal(t, "msg 5", snap.Alerts[19].Message)
	assert.NotEmpty(t, snap.Alerts[0].ID)

	assert.False(t, s.AddAlert(alerts[24]))
	assert.Equal(t, 0, s.AddAlerts(alerts[10:]))
	assert.Len(t, s.Snapshot().Alerts, 20)

	sameTimeOtherText := model.Alert{Date: alerts[24].Date, Message: "other"}
	assert.True(t, s.AddAlert(sameTimeOtherText))
}

func TestAlerts_OrderAndDismiss(t *testing.T) {
	s := New()
	n := s.AddAlerts([]model.Alert{
		{Date: t0.Add(time.Minute), Message: "b"},
		{Date: t0, Message: "a"},
		{Date: t0.Add(2 * time.Minute), Message: "c"},
		{Date: t0, Message: "a"},
	})
	assert.Equal(t, 3, n)
	msgs := func() []string {
		ret := []string{}
		for _, a := range s.Snapshot().Alerts {
			ret = append(ret, a.Message)
		}
		return ret
	}
	assert.Equal(t, []string{"c", "b", "a"}, msgs())

	require.NoError(t, s.DismissAlert(1))
	assert.Equal(t, []string{"c", "a"}, msgs())
	assert.ErrorIs(t, s.DismissAlert(2), ErrInvalidAlertIndex)
	assert.ErrorIs(t, s.DismissAlert(-1), ErrInvalidAlertIndex)
}

func TestAlerts_ReofferedListIsNoChange(t *testing.T) {
	clock := &stepClock{t: t0}
	s := New(WithClock(clock.now))
	alerts := make([]model.Alert, 25)
	for i := range alerts {
		alerts[i] = model.Alert{Date: t0.Add(time.Duration(i) * time.Minute), Message: fmt.Sprintf("msg %d", i)}
	}
	assert.Equal(t, 20, s.AddAlerts(alerts))
	before := s.Snapshot().LastUpdate

	assert.Equal(t, 0, s.AddAlerts(alerts), "alerts older than the kept ones are not counted")
	assert.False(t, s.AddAlert(alerts[0]))
	assert.Equal(t, before, s.Snapshot().LastUpdate)
	assert.Equal(t, "msg 24", s.Snapshot().Alerts[0].Message)
}

func TestAlerts_DismissedStayDismissed(t *testing.T) {
	s := New()
	alerts := make([]model.Alert, 25)
	for i := range alerts {
		alerts[i] = model.Alert{Date: t0.Add(time.Duration(i) * time.Minute), Message: fmt.Sprintf("msg %d", i)}
	}
	s.AddAlerts(alerts)
	require.NoError(t, s.DismissAlert(0))

	s.AddAlerts(alerts)
	snap := s.Snapshot()
	require.Len(t, snap.Alerts, 20)
	assert.Equal(t, "msg 23", snap.Alerts[0].Message)
	assert.Equal(t, "msg 4", snap.Alerts[19].Message)

	s.ResetSessionData()
	assert.Equal(t, 20, s.AddAlerts(alerts))
	assert.Equal(t, "msg 24", s.Snapshot().Alerts[0].Message)
}

func TestKeyByDriver_Idempotent(t *testing.T) {
	samples := []model.CarData{
		{Date: t0, DriverNumber: 1, Speed: 100},
		{Date: t0.Add(time.Second), DriverNumber: 1, Speed: 110},
		{Date: t0, DriverNumber: 44, Speed: 200},
		{Date: t0.Add(-time.Second), DriverNumber: 1, Speed: 90},
		{Date: t0, DriverNumber: 44, Speed: 201},
	}
	keyed := KeyByDriver(samples)
	assert.Equal(t, 110, keyed[1].Speed, "latest timestamp wins")
	assert.Equal(t, 201, keyed[44].Speed, "later element wins on equal timestamps")

	again := KeyByDriver(LatestPerDriver(samples))
	if diff := cmp.Diff(keyed, again); diff != "" {
		t.Errorf("normalization not idempotent (-want +got):\n%s", diff)
	}

	s := New()
	s.SetCarData(samples)
	first := s.Snapshot().CarData
	s.SetCarDataMap(first)
	if diff := cmp.Diff(first, s.Snapshot().CarData); diff != "" {
		t.Errorf("re-normalizing changed the data (-want +got):\n%s", diff)
	}
}

func TestSetCarData_MergesLatest(t *testing.T) {
	s := New(WithHistorySize(3))
	s.SetCarData([]model.CarData{{Date: t0, DriverNumber: 1, Speed: 100}, {Date: t0, DriverNumber: 44, Speed: 200}})
	s.SetCarData([]model.CarData{{Date: t0.Add(time.Second), DriverNumber: 1, Speed: 120}})
	s.SetCarData([]model.CarData{{Date: t0.Add(-time.Second), DriverNumber: 44, Speed: 50}})

	snap := s.Snapshot()
	assert.Equal(t, 120, snap.CarData[1].Speed)
	assert.Equal(t, 200, snap.CarData[44].Speed, "older sample does not overwrite")
	assert.Len(t, s.CarHistory(1), 2)
	assert.Len(t, s.CarHistory(44), 1)

	for i := 2; i < 6; i++ {
		s.SetCarData([]model.CarData{{Date: t0.Add(time.Duration(i) * time.Second), DriverNumber: 1, Speed: i}})
	}
	h := s.CarHistory(1)
	require.Len(t, h, 3)
	assert.Equal(t, []int{3, 4, 5}, []int{h[0].Speed, h[1].Speed, h[2].Speed})
	assert.Empty(t, s.CarHistory(99))
}

func TestSetPositions(t *testing.T) {
	s := New()
	s.SetPositions([]model.DriverRow{
		{DriverNumber: 1, Position: 2, Date: t0},
		{DriverNumber: 16, Position: 1, Date: t0},
		{DriverNumber: 1, Position: 1, Date: t0.Add(time.Second)},
		{DriverNumber: 16, Position: 2, Date: t0.Add(time.Second)},
	})
	got := s.Snapshot().Positions
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].DriverNumber)
	assert.Equal(t, 16, got[1].DriverNumber)
	assert.Len(t, s.PositionHistory(1), 1)
}

func TestLastUpdateAndSnapshotIsolation(t *testing.T) {
	clock := &stepClock{t: t0}
	s := New(WithClock(clock.now))
	assert.True(t, s.Snapshot().LastUpdate.IsZero())

	s.SetWeather(&model.Weather{Date: t0, AirTemperature: 24})
	first := s.Snapshot()
	assert.Equal(t, t0.Add(time.Second), first.LastUpdate)

	first.Weather.AirTemperature = 99
	first.Selection = append(first.Selection, 1)
	assert.InDelta(t, 24.0, s.Snapshot().Weather.AirTemperature, 0.001)
	assert.Empty(t, s.Snapshot().Selection)

	assert.Error(t, s.DismissAlert(0))
	assert.Equal(t, first.LastUpdate, s.Snapshot().LastUpdate, "failed mutations do not touch lastUpdate")

	s.SetConnectionStatus(model.StatusPolling)
	snap := s.Snapshot()
	assert.Equal(t, model.StatusPolling, snap.ConnectionStatus)
	assert.Equal(t, t0.Add(2*time.Second), snap.LastUpdate)
}

func TestLatestWeather(t *testing.T) {
	assert.Nil(t, LatestWeather(nil))
	w := LatestWeather([]model.Weather{
		{Date: t0.Add(time.Minute), AirTemperature: 2},
		{Date: t0.Add(2 * time.Minute), AirTemperature: 3},
		{Date: t0, AirTemperature: 1},
	})
	assert.InDelta(t, 3.0, w.AirTemperature, 0.001, "latest date wins, not the last element")
}

func TestUIState(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.SetTelemetryChannel("volume"), ErrInvalidChannel)
	assert.ErrorIs(t, s.SetCircuit("nowhere"), ErrInvalidCircuit)
	require.NoError(t, s.SetTelemetryChannel(model.ChannelBrake))
	require.NoError(t, s.SetCircuit(model.CircuitMonaco))
	s.SetMockPaused(true)
	assert.Equal(t, UIState{TelemetryChannel: model.ChannelBrake, Circuit: model.CircuitMonaco, MockPaused: true}, s.Snapshot().UI)
}

func TestResetSessionData(t *testing.T) {
	s := New()
	s.SetDrivers(drivers(1, 2, 3))
	s.SetCarData([]model.CarData{{Date: t0, DriverNumber: 1}})
	s.AddAlert(model.Alert{Date: t0, Message: "x"})
	s.ResetSessionData()
	snap := s.Snapshot()
	assert.Empty(t, snap.CarData)
	assert.Empty(t, snap.Alerts)
	assert.Empty(t, s.CarHistory(1))
	assert.Len(t, snap.Drivers, 3)
	assert.Equal(t, []int{1, 2, 3}, snap.Selection)
}
