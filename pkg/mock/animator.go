package mock

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

const (
	DefaultFrameInterval = 200 * time.Millisecond
	frameStep            = 0.5
	driverSpacing        = 20
)

// Sink receives the animated samples
type Sink interface {
	Selection() []int
	SetLocationsMap(samples map[int]model.Location)
	SetCarDataMap(samples map[int]model.CarData)
}

type (
	Animator struct {
		sink     Sink
		interval time.Duration
		now      func() time.Time
		l        *log.Logger

		mu     sync.Mutex
		frame  float64
		paused bool
	}
	AnimatorOption func(*Animator)
)

func WithFrameInterval(arg time.Duration) AnimatorOption {
	return func(a *Animator) {
		a.interval = arg
	}
}

func WithClock(now func() time.Time) AnimatorOption {
	return func(a *Animator) {
		a.now = now
	}
}

func WithLogger(l *log.Logger) AnimatorOption {
	return func(a *Animator) {
		a.l = l
	}
}

func NewAnimator(sink Sink, opts ...AnimatorOption) *Animator {
	ret := &Animator{
		sink:     sink,
		interval: DefaultFrameInterval,
		now:      time.Now,
		l:        log.Default().Named("mock"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// PositionAt places the driver at index idx on an elliptic track
func PositionAt(frame float64, idx int) (x, y float64) {
	progress := math.Mod(frame+float64(idx*driverSpacing), 100)
	angle := progress / 100 * 2 * math.Pi
	return 50 + math.Cos(angle)*30, 40 + math.Sin(angle)*25
}

// Run advances the animation until ctx is done
func (a *Animator) Run(ctx context.Context) {
	a.l.Debug("animator started", log.Duration("interval", a.interval))
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.l.Debug("animator stopped")
			return
		case <-ticker.C:
			a.Step()
		}
	}
}

// Step advances one frame and publishes the samples. Nothing happens while paused.
func (a *Animator) Step() bool {
	a.mu.Lock()
	if a.paused {
		a.mu.Unlock()
		return false
	}
	a.frame += frameStep
	frame := a.frame
	a.mu.Unlock()

	selection := a.sink.Selection()
	if len(selection) == 0 {
		return true
	}
	now := a.now()
	point := int(frame * 2)
	locations := make(map[int]model.Location, len(selection))
	cars := make(map[int]model.CarData, len(selection))
	for idx, driver := range selection {
		x, y := PositionAt(frame, idx)
		locations[driver] = model.Location{Date: now, DriverNumber: driver, X: x, Y: y}
		cars[driver] = CarDataAt(driver, idx, point, now)
	}
	a.sink.SetLocationsMap(locations)
	a.sink.SetCarDataMap(cars)
	return true
}

func (a *Animator) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = true
}

func (a *Animator) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = false
}

func (a *Animator) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *Animator) Frame() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frame
}
