package store

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// Sample is a timestamped record belonging to a driver
type Sample interface {
	Driver() int
	Timestamp() time.Time
}

// KeyByDriver keeps the latest sample per driver.
// On equal timestamps the later element wins.
func KeyByDriver[T Sample](items []T) map[int]T {
	ret := make(map[int]T, len(items))
	for _, item := range items {
		if cur, ok := ret[item.Driver()]; ok && cur.Timestamp().After(item.Timestamp()) {
			continue
		}
		ret[item.Driver()] = item
	}
	return ret
}

// MergeLatest adds the entries of src to dst if they are not older than the
// existing one.
func MergeLatest[T Sample](dst, src map[int]T) {
	for k, v := range src {
		if cur, ok := dst[k]; ok && cur.Timestamp().After(v.Timestamp()) {
			continue
		}
		dst[k] = v
	}
}

// LatestPerDriver reduces items to the latest sample per driver ordered by
// driver number.
func LatestPerDriver[T Sample](items []T) []T {
	ret := lo.Values(KeyByDriver(items))
	slices.SortFunc(ret, func(a, b T) int { return a.Driver() - b.Driver() })
	return ret
}

// LatestWeather returns the sample with the most recent date
func LatestWeather(samples []model.Weather) *model.Weather {
	if len(samples) == 0 {
		return nil
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if !s.Date.Before(latest.Date) {
			latest = s
		}
	}
	return &latest
}
