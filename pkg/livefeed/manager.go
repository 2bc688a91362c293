package livefeed

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/mock"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
)

const (
	DefaultPollInterval         = 10 * time.Second
	DefaultFallbackDelay        = 5 * time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = time.Second
)

// Upstream is the part of the OpenF1 client used by the poll cycle
type Upstream interface {
	Sessions(ctx context.Context, year int) []model.Session
	Drivers(ctx context.Context, sessionKey int) []model.Driver
	Positions(ctx context.Context, sessionKey int) []model.Position
	Intervals(ctx context.Context, sessionKey int) []model.Interval
	CarData(ctx context.Context, sessionKey int, driverNumbers ...int) []model.CarData
	Locations(ctx context.Context, sessionKey int, driverNumbers ...int) []model.Location
	Weather(ctx context.Context, sessionKey int) []model.Weather
	RaceControl(ctx context.Context, sessionKey int) []model.RaceControl
	Stints(ctx context.Context, sessionKey int) []model.Stint
	Degraded() bool
}

type (
	Manager struct {
		store         *store.Store
		upstream      Upstream
		pushURL       string
		dial          DialFunc
		pollInterval  time.Duration
		fallbackDelay time.Duration
		maxAttempts   int
		retryDelay    time.Duration
		frameInterval time.Duration
		now           func() time.Time
		l             *log.Logger

		mu     sync.Mutex // lifecycle
		cancel context.CancelFunc
		wg     sync.WaitGroup
		active atomic.Bool

		connMu sync.Mutex
		conn   Conn

		animMu     sync.Mutex
		animator   *mock.Animator
		animCancel context.CancelFunc
		animDone   chan struct{}

		lastSession   atomic.Int64
		mockPublished atomic.Bool
		dials         atomic.Int64
		cycles        atomic.Int64
	}
	Option func(*Manager)
)

// WithPushURL sets the websocket url of the push server. Without it the
// manager polls right away.
func WithPushURL(arg string) Option {
	return func(m *Manager) {
		m.pushURL = arg
	}
}

func WithDialer(arg DialFunc) Option {
	return func(m *Manager) {
		m.dial = arg
	}
}

func WithPollInterval(arg time.Duration) Option {
	return func(m *Manager) {
		m.pollInterval = arg
	}
}

func WithFallbackDelay(arg time.Duration) Option {
	return func(m *Manager) {
		m.fallbackDelay = arg
	}
}

// WithMaxReconnectAttempts sets the number of reconnects before polling
func WithMaxReconnectAttempts(arg int) Option {
	return func(m *Manager) {
		m.maxAttempts = arg
	}
}

// WithReconnectDelay sets the initial reconnect delay
func WithReconnectDelay(arg time.Duration) Option {
	return func(m *Manager) {
		m.retryDelay = arg
	}
}

func WithFrameInterval(arg time.Duration) Option {
	return func(m *Manager) {
		m.frameInterval = arg
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) {
		m.l = l
	}
}

func NewManager(s *store.Store, upstream Upstream, opts ...Option) *Manager {
	ret := &Manager{
		store:         s,
		upstream:      upstream,
		dial:          websocketDial,
		pollInterval:  DefaultPollInterval,
		fallbackDelay: DefaultFallbackDelay,
		maxAttempts:   DefaultMaxReconnectAttempts,
		retryDelay:    DefaultReconnectDelay,
		frameInterval: mock.DefaultFrameInterval,
		now:           time.Now,
		l:             log.Default().Named("livefeed"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.animator = mock.NewAnimator(&guardedSink{m: ret},
		mock.WithFrameInterval(ret.frameInterval),
		mock.WithClock(ret.now),
		mock.WithLogger(ret.l.Named("mock")))
	return ret
}

// Animator gives access to the mock session clock
func (m *Manager) Animator() *mock.Animator {
	return m.animator
}

// Connect starts the data acquisition. Calling it again while running is a no-op.
func (m *Manager) Connect(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.active.Store(true)
	m.l.Info("connecting", log.String("pushURL", m.pushURL))
	m.setStatus(model.StatusConnecting)

	m.wg.Add(2)
	go m.fallbackTimer(runCtx)
	go m.run(runCtx)
}

// Disconnect stops all activity and waits for it to finish.
// No store mutation happens once it returns.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.active.Store(false)
	m.cancel()
	m.cancel = nil
	m.stopAnimator()
	m.closeConn()
	m.wg.Wait()
	m.l.Info("disconnected")
	m.store.SetConnectionStatus(model.StatusDisconnected)
}

// Running reports whether Connect was called without a matching Disconnect
func (m *Manager) Running() bool {
	return m.active.Load()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()
	if m.pushURL != "" {
		if err := m.pushLoop(ctx); err != nil && ctx.Err() == nil {
			m.l.Warn("push channel given up, switching to polling", log.ErrorField(err))
		}
	}
	if ctx.Err() != nil {
		return
	}
	m.pollLoop(ctx)
}

func (m *Manager) fallbackTimer(ctx context.Context) {
	defer m.wg.Done()
	t := time.NewTimer(m.fallbackDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return
	case <-t.C:
	}
	if len(m.store.Snapshot().Drivers) > 0 || m.lastSession.Load() != 0 {
		return
	}
	m.l.Info("no drivers received, using mock data")
	m.publishMock(ctx)
}

// publishMock injects the demo roster and starts the animator.
// Data of a previous live session is dropped first.
func (m *Manager) publishMock(ctx context.Context) {
	roster := mock.DemoRoster()
	m.mockPublished.Store(true)
	leftLive := m.lastSession.Swap(0) != 0
	m.write(func(s *store.Store) {
		if leftLive {
			s.Reset()
		}
		s.SetDrivers(roster)
		s.SetSessionInfo(&model.SessionInfo{
			Name:   "Mock Session",
			Type:   model.SessionPractice,
			Status: model.SessionFinished,
		})
		s.SetTyres(mock.Tyres(roster))
	})
	m.startAnimator(ctx)
}

func (m *Manager) startAnimator(ctx context.Context) {
	m.animMu.Lock()
	defer m.animMu.Unlock()
	if m.animCancel != nil || ctx.Err() != nil {
		return
	}
	animCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.animCancel = cancel
	m.animDone = done
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer close(done)
		m.animator.Run(animCtx)
	}()
}

// stopAnimator returns after the animator wrote its last frame
func (m *Manager) stopAnimator() {
	m.animMu.Lock()
	defer m.animMu.Unlock()
	if m.animCancel != nil {
		m.animCancel()
		<-m.animDone
		m.animCancel = nil
		m.animDone = nil
	}
}

// MockActive reports whether the animator is running
func (m *Manager) MockActive() bool {
	m.animMu.Lock()
	defer m.animMu.Unlock()
	return m.animCancel != nil
}

// write applies fn to the store unless the manager was disconnected
func (m *Manager) write(fn func(s *store.Store)) {
	if !m.active.Load() {
		return
	}
	fn(m.store)
}

func (m *Manager) setStatus(status model.ConnectionStatus) {
	m.write(func(s *store.Store) { s.SetConnectionStatus(status) })
}

type guardedSink struct {
	m *Manager
}

func (g *guardedSink) Selection() []int {
	return g.m.store.Selection()
}

func (g *guardedSink) SetLocationsMap(samples map[int]model.Location) {
	g.m.write(func(s *store.Store) { s.SetLocationsMap(samples) })
}

func (g *guardedSink) SetCarDataMap(samples map[int]model.CarData) {
	g.m.write(func(s *store.Store) { s.SetCarDataMap(samples) })
}
