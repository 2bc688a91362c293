package livefeed

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
)

const raceDistance = 70

func (m *Manager) pollLoop(ctx context.Context) {
	m.l.Info("starting polling mode", log.Duration("interval", m.pollInterval))
	m.setStatus(model.StatusPolling)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		m.runCycle(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// runCycle executes one poll cycle. A failing cycle is reported as status
// error until the next cycle succeeds.
func (m *Manager) runCycle(ctx context.Context) {
	n := m.cycles.Add(1)
	ctx, span := otel.Tracer("livefeed").Start(ctx, "poll cycle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.Int64("cycle", n)))
	defer span.End()
	if err := m.pollCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "poll cycle failed")
		m.l.Error("poll cycle failed", log.ErrorField(err))
		m.setStatus(model.StatusError)
		return
	}
	m.setStatus(model.StatusPolling)
}

func (m *Manager) pollCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.l.Debug("recovered", log.String("stack", string(debug.Stack())))
			err = fmt.Errorf("poll cycle panic: %v", r)
		}
	}()
	defer func() {
		m.write(func(s *store.Store) { s.SetDegraded(m.upstream.Degraded()) })
	}()

	now := m.now()
	var live *model.Session
	sessions := m.upstream.Sessions(ctx, now.Year())
	for i := range sessions {
		if sessions[i].IsLive(now) {
			live = &sessions[i]
			break
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if live == nil {
		m.l.Debug("no live session")
		m.publishMock(ctx)
		return nil
	}
	return m.pollLive(ctx, live, now)
}

func sessionInfo(live *model.Session, now time.Time) *model.SessionInfo {
	totalLaps := 0
	if live.SessionType == model.SessionRace {
		totalLaps = raceDistance
	}
	return &model.SessionInfo{
		SessionKey:    live.SessionKey,
		Name:          live.SessionName,
		Type:          live.SessionType,
		Status:        model.SessionLive,
		DateStart:     live.DateStart,
		DateEnd:       live.DateEnd,
		TimeRemaining: max(0, live.DateEnd.Sub(now)),
		CurrentLap:    1,
		TotalLaps:     totalLaps,
	}
}

//nolint:funlen // sequence of fetches
func (m *Manager) pollLive(ctx context.Context, live *model.Session, now time.Time) error {
	key := live.SessionKey
	fromMock := m.mockPublished.Swap(false)
	if prev := m.lastSession.Swap(int64(key)); prev != int64(key) || fromMock {
		m.l.Info("live session", log.Int("sessionKey", key),
			log.String("name", live.SessionName), log.Bool("fromMock", fromMock))
		m.stopAnimator()
		switch {
		case fromMock:
			// the mock roster and its samples must not survive into the live view
			m.write(func(s *store.Store) { s.Reset() })
		case prev != 0:
			m.write(func(s *store.Store) { s.ResetSessionData() })
		}
	}
	info := sessionInfo(live, now)
	m.write(func(s *store.Store) { s.SetSessionInfo(info) })

	// drivers first, the selection depends on them
	drivers := m.upstream.Drivers(ctx, key)
	if len(drivers) > 0 {
		m.write(func(s *store.Store) { s.SetDrivers(drivers) })
	}

	var (
		positions []model.Position
		intervals []model.Interval
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error { positions = m.upstream.Positions(gCtx, key); return nil })
	g.Go(func() error { intervals = m.upstream.Intervals(gCtx, key); return nil })
	if err := g.Wait(); err != nil {
		return err
	}
	if len(positions) > 0 {
		rows := MergePositions(positions, intervals)
		m.write(func(s *store.Store) {
			s.SetPositions(rows)
			s.SetIntervals(intervals)
		})
	}

	var (
		cars      []model.CarData
		locations []model.Location
		weather   []model.Weather
		rc        []model.RaceControl
		stints    []model.Stint
	)
	selection := m.store.Selection()
	g, gCtx = errgroup.WithContext(ctx)
	g.Go(func() error { cars = m.upstream.CarData(gCtx, key, selection...); return nil })
	g.Go(func() error { locations = m.upstream.Locations(gCtx, key); return nil })
	g.Go(func() error { weather = m.upstream.Weather(gCtx, key); return nil })
	g.Go(func() error { rc = m.upstream.RaceControl(gCtx, key); return nil })
	g.Go(func() error { stints = m.upstream.Stints(gCtx, key); return nil })
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	m.write(func(s *store.Store) {
		if len(cars) > 0 {
			s.SetCarData(cars)
		}
		if len(locations) > 0 {
			s.SetLocations(locations)
		}
		if w := store.LatestWeather(weather); w != nil {
			s.SetWeather(w)
		}
		if len(rc) > 0 {
			alerts := make([]model.Alert, 0, len(rc))
			for i := range rc {
				alerts = append(alerts, rc[i].ToAlert())
			}
			if added := s.AddAlerts(alerts); added > 0 {
				m.l.Debug("new race control messages", log.Int("count", added))
			}
		}
		if len(stints) > 0 {
			s.SetTyres(LatestStints(stints, info.CurrentLap))
		}
	})
	return nil
}

// PollCount returns the number of poll cycles started
func (m *Manager) PollCount() int64 {
	return m.cycles.Load()
}
