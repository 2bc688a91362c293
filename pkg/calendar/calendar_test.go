package calendar

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

func meeting(name string, month time.Month, day int) model.Meeting {
	return model.Meeting{
		MeetingName: name,
		DateStart:   time.Date(2025, month, day, 13, 0, 0, 0, time.UTC),
	}
}

func names(meetings []model.Meeting) []string {
	ret := make([]string, len(meetings))
	for i, m := range meetings {
		ret[i] = m.MeetingName
	}
	return ret
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	apiList := []model.Meeting{
		meeting("Hungary", time.August, 3),
		meeting("Spain", time.June, 1),
		meeting("Britain", time.July, 6),
	}
	fallback := []model.Meeting{
		meeting("Belgium", time.July, 27),
		meeting("Austria", time.June, 29),
	}
	tests := []struct {
		name     string
		meetings []model.Meeting
		fallback []model.Meeting
		want     []string
	}{
		{"api list", apiList, fallback, []string{"Britain", "Hungary"}},
		{"api empty", nil, fallback, []string{"Belgium"}},
		{"api only past", apiList[1:2], fallback, []string{"Belgium"}},
		{"nothing", nil, nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Upcoming(now, tt.meetings, tt.fallback)
			assert.DeepEqual(t, tt.want, names(got))
		})
	}
}

func TestNext(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []model.Meeting{
		meeting("A", time.March, 1),
		meeting("B", time.April, 1),
		meeting("C", time.May, 1),
		meeting("D", time.June, 1),
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names(Next(now, 0, list, nil))); diff != "" {
		t.Errorf("Next() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, len(Next(now, 1, list, nil)))
}
