package openf1

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

// sessionParams resolves the session key. 0 uses the remembered key.
func (c *Client) sessionParams(sessionKey int) (url.Values, bool) {
	if sessionKey == 0 {
		sessionKey = c.SessionKey()
	}
	if sessionKey == 0 {
		return nil, false
	}
	return url.Values{"session_key": {strconv.Itoa(sessionKey)}}, true
}

//nolint:whitespace // can't make both editor and linter happy
func sessionScoped[T any](
	ctx context.Context, c *Client, endpoint string, sessionKey int,
	extra func(url.Values),
) []T {
	params, ok := c.sessionParams(sessionKey)
	if !ok {
		c.l.Debug("no session key", log.String("endpoint", endpoint))
		return []T{}
	}
	if extra != nil {
		extra(params)
	}
	return Fetch[T](ctx, c, endpoint, params)
}

func driverFilter(driverNumbers []int) func(url.Values) {
	if len(driverNumbers) == 0 {
		return nil
	}
	return func(v url.Values) {
		s := make([]string, len(driverNumbers))
		for i, n := range driverNumbers {
			s[i] = strconv.Itoa(n)
		}
		v.Set("driver_number", strings.Join(s, ","))
	}
}

// CurrentSession fetches the latest session and remembers its key
func (c *Client) CurrentSession(ctx context.Context) (*model.Session, bool) {
	sessions := Fetch[model.Session](ctx, c, "/sessions",
		url.Values{"session_key": {"latest"}})
	if len(sessions) == 0 {
		return nil, false
	}
	s := sessions[len(sessions)-1]
	c.rememberSession(s.SessionKey)
	return &s, true
}

func (c *Client) Sessions(ctx context.Context, year int) []model.Session {
	return Fetch[model.Session](ctx, c, "/sessions",
		url.Values{"year": {strconv.Itoa(year)}})
}

func (c *Client) Meetings(ctx context.Context, year int) []model.Meeting {
	return Fetch[model.Meeting](ctx, c, "/meetings",
		url.Values{"year": {strconv.Itoa(year)}})
}

// IsSessionLive checks if the session is running right now
func (c *Client) IsSessionLive(ctx context.Context, sessionKey int) bool {
	sessions := sessionScoped[model.Session](ctx, c, "/sessions", sessionKey, nil)
	now := c.now()
	for i := range sessions {
		if sessions[i].IsLive(now) {
			return true
		}
	}
	return false
}

func (c *Client) Drivers(ctx context.Context, sessionKey int) []model.Driver {
	return sessionScoped[model.Driver](ctx, c, "/drivers", sessionKey, nil)
}

func (c *Client) Positions(ctx context.Context, sessionKey int) []model.Position {
	return sessionScoped[model.Position](ctx, c, "/position", sessionKey, nil)
}

func (c *Client) Intervals(ctx context.Context, sessionKey int) []model.Interval {
	return sessionScoped[model.Interval](ctx, c, "/intervals", sessionKey, nil)
}

// CarData fetches telemetry, optionally restricted to some drivers
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Client) CarData(
	ctx context.Context, sessionKey int, driverNumbers ...int,
) []model.CarData {
	return sessionScoped[model.CarData](ctx, c, "/car_data", sessionKey,
		driverFilter(driverNumbers))
}

//nolint:whitespace // can't make both editor and linter happy
func (c *Client) Locations(
	ctx context.Context, sessionKey int, driverNumbers ...int,
) []model.Location {
	return sessionScoped[model.Location](ctx, c, "/location", sessionKey,
		driverFilter(driverNumbers))
}

func (c *Client) Weather(ctx context.Context, sessionKey int) []model.Weather {
	return sessionScoped[model.Weather](ctx, c, "/weather", sessionKey, nil)
}

func (c *Client) Laps(ctx context.Context, sessionKey, driverNumber int) []model.Lap {
	var extra func(url.Values)
	if driverNumber > 0 {
		extra = driverFilter([]int{driverNumber})
	}
	return sessionScoped[model.Lap](ctx, c, "/laps", sessionKey, extra)
}

func (c *Client) Pits(ctx context.Context, sessionKey int) []model.Pit {
	return sessionScoped[model.Pit](ctx, c, "/pit", sessionKey, nil)
}

func (c *Client) RaceControl(ctx context.Context, sessionKey int) []model.RaceControl {
	return sessionScoped[model.RaceControl](ctx, c, "/race_control", sessionKey, nil)
}

func (c *Client) Stints(ctx context.Context, sessionKey int) []model.Stint {
	return sessionScoped[model.Stint](ctx, c, "/stints", sessionKey, nil)
}
