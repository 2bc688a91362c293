package calendar

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// DefaultLimit is the number of meetings shown by default
const DefaultLimit = 3

// Upcoming returns the meetings starting after now in ascending order.
// The fallback list is used when meetings contains no future meeting.
func Upcoming(now time.Time, meetings, fallback []model.Meeting) []model.Meeting {
	ret := future(now, meetings)
	if len(ret) == 0 {
		ret = future(now, fallback)
	}
	return ret
}

// Next returns at most limit upcoming meetings (DefaultLimit if limit <= 0)
func Next(now time.Time, limit int, meetings, fallback []model.Meeting) []model.Meeting {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ret := Upcoming(now, meetings, fallback)
	if len(ret) > limit {
		ret = ret[:limit]
	}
	return ret
}

func future(now time.Time, meetings []model.Meeting) []model.Meeting {
	ret := lo.Filter(meetings, func(m model.Meeting, _ int) bool {
		return m.DateStart.After(now)
	})
	slices.SortStableFunc(ret, func(a, b model.Meeting) int {
		return a.DateStart.Compare(b.DateStart)
	})
	return ret
}
