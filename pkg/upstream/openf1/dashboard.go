package openf1

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// DashboardData bundles everything needed for a full refresh
type DashboardData struct {
	SessionKey  int
	Drivers     []model.Driver
	Positions   []model.Position
	Intervals   []model.Interval
	Weather     []model.Weather
	RaceControl []model.RaceControl
	Locations   []model.Location
	CarData     []model.CarData
	Stints      []model.Stint
}

// DashboardData fetches all resources of a session concurrently.
// Without an explicit or remembered session key ErrNoSessionKey is returned.
func (c *Client) DashboardData(ctx context.Context, sessionKey int) (*DashboardData, error) {
	if sessionKey == 0 {
		sessionKey = c.SessionKey()
	}
	if sessionKey == 0 {
		return nil, ErrNoSessionKey
	}
	ret := &DashboardData{SessionKey: sessionKey}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { ret.Drivers = c.Drivers(gctx, sessionKey); return nil })
	g.Go(func() error { ret.Positions = c.Positions(gctx, sessionKey); return nil })
	g.Go(func() error { ret.Intervals = c.Intervals(gctx, sessionKey); return nil })
	g.Go(func() error { ret.Weather = c.Weather(gctx, sessionKey); return nil })
	g.Go(func() error { ret.RaceControl = c.RaceControl(gctx, sessionKey); return nil })
	g.Go(func() error { ret.Locations = c.Locations(gctx, sessionKey); return nil })
	g.Go(func() error { ret.CarData = c.CarData(gctx, sessionKey); return nil })
	g.Go(func() error { ret.Stints = c.Stints(gctx, sessionKey); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ret, nil
}
