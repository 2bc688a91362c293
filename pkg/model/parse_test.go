//nolint:lll,funlen // readablity
package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseList_Positions(t *testing.T) {
	date := time.Date(2024, 5, 26, 13, 3, 35, 292000000, time.UTC)
	tests := []struct {
		name        string
		data        string
		want        []Position
		wantDropped int
		wantErr     bool
	}{
		{
			name: "valid",
			data: `[{"date":"2024-05-26T13:03:35.292000+00:00","driver_number":1,"position":2,"session_key":9523}]`,
			want: []Position{{Date: date, DriverNumber: 1, Position: 2, SessionKey: 9523}},
		},
		{
			name: "malformed element dropped",
			data: `[{"date":"2024-05-26T13:03:35.292000+00:00","driver_number":1,"position":2},{"date":"yesterday","driver_number":4,"position":1}]`,
			want:        []Position{{Date: date, DriverNumber: 1, Position: 2}},
			wantDropped: 1,
		},
		{
			name:        "validation failure dropped",
			data:        `[{"date":"2024-05-26T13:03:35.292000+00:00","driver_number":0,"position":2},null,{"driver_number":"x"}]`,
			want:        []Position{},
			wantDropped: 3,
		},
		{
			name: "empty array",
			data: `[]`,
			want: []Position{},
		},
		{
			name:    "not an array",
			data:    `{"detail":"Not found"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats, err := ParseList[Position]([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantDropped, stats.Dropped)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseList() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseList_RaceControlOptionalFields(t *testing.T) {
	data := `[
		{"date":"2024-05-26T13:00:00+00:00","category":"Flag","message":"GREEN LIGHT - PIT EXIT OPEN","flag":"GREEN","lap_number":1,"scope":"Track","sector":null,"driver_number":null},
		{"date":"2024-05-26T13:05:00+00:00","category":"Other","message":"DRS ENABLED"}
	]`
	got, stats, err := ParseList[RaceControl]([]byte(data))
	assert.NoError(t, err)
	assert.Equal(t, 0, stats.Dropped)
	assert.Len(t, got, 2)

	flag, ok := got[0].Flag.Get()
	assert.True(t, ok)
	assert.Equal(t, "GREEN", flag)
	assert.True(t, got[0].Sector.IsNull())
	assert.True(t, got[1].Flag.IsUnset())
	assert.Equal(t, 0, got[1].LapNumber.GetOrZero())
}

func TestAlertID(t *testing.T) {
	rc := RaceControl{Date: time.Date(2024, 5, 26, 13, 0, 0, 0, time.UTC), Message: "SAFETY CAR DEPLOYED"}
	a1 := rc.ToAlert()
	a2 := rc.ToAlert()
	assert.Equal(t, a1.ID, a2.ID)
	rc.Message = "SAFETY CAR IN THIS LAP"
	assert.NotEqual(t, a1.ID, rc.ToAlert().ID)
}
