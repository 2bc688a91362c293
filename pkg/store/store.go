package store

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

var (
	ErrSelectionFull     = errors.New("selection is full")
	ErrInvalidAlertIndex = errors.New("invalid alert index")
	ErrInvalidChannel    = errors.New("invalid telemetry channel")
	ErrInvalidCircuit    = errors.New("invalid circuit")
)

const autoSelectCount = 3

type UIState struct {
	TelemetryChannel model.TelemetryChannel `json:"telemetryChannel"`
	Circuit          model.Circuit          `json:"circuit"`
	MockPaused       bool                   `json:"mockPaused"`
}

// Snapshot is the read-only view handed out to consumers
type Snapshot struct {
	Drivers          []model.Driver          `json:"drivers"`
	Positions        []model.DriverRow       `json:"positions"`
	Intervals        []model.Interval        `json:"intervals"`
	CarData          map[int]model.CarData   `json:"carData"`
	Locations        map[int]model.Location  `json:"locations"`
	Weather          *model.Weather          `json:"weather"`
	Alerts           []model.Alert           `json:"alerts"`
	SessionInfo      *model.SessionInfo      `json:"sessionInfo"`
	ConnectionStatus model.ConnectionStatus  `json:"connectionStatus"`
	Selection        []int                   `json:"selection"`
	LastUpdate       time.Time               `json:"lastUpdate"`
	Tyres            map[int]model.TyreState `json:"tyres"`
	Degraded         bool                    `json:"degraded"`
	UI               UIState                 `json:"ui"`
}

type (
	Store struct {
		mu           sync.RWMutex
		state        Snapshot
		driversSeen  bool
		maxSelection int
		maxAlerts    int
		historySize  int
		carHistory   map[int]*ring[model.CarData]
		posHistory   map[int]*ring[model.DriverRow]
		dismissed    []model.AlertKey
		now          func() time.Time
		changed      chan struct{}
		l            *log.Logger
	}
	Option func(*Store)
)

func WithMaxSelection(arg int) Option {
	return func(s *Store) {
		s.maxSelection = arg
	}
}

func WithMaxAlerts(arg int) Option {
	return func(s *Store) {
		s.maxAlerts = arg
	}
}

// WithHistorySize sets the number of samples kept per driver
func WithHistorySize(arg int) Option {
	return func(s *Store) {
		s.historySize = arg
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		s.l = l
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		maxSelection: 5,
		maxAlerts:    20,
		historySize:  64,
		carHistory:   map[int]*ring[model.CarData]{},
		posHistory:   map[int]*ring[model.DriverRow]{},
		now:          time.Now,
		changed:      make(chan struct{}, 1),
		l:            log.Default().Named("store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = Snapshot{
		Drivers:          []model.Driver{},
		Positions:        []model.DriverRow{},
		Intervals:        []model.Interval{},
		CarData:          map[int]model.CarData{},
		Locations:        map[int]model.Location{},
		Alerts:           []model.Alert{},
		Selection:        []int{},
		Tyres:            map[int]model.TyreState{},
		ConnectionStatus: model.StatusDisconnected,
		UI: UIState{
			TelemetryChannel: model.ChannelSpeed,
			Circuit:          model.CircuitDefault,
		},
	}
	return s
}

func (s *Store) MaxSelection() int {
	return s.maxSelection
}

// mutate runs fn under the write lock and stamps lastUpdate
func (s *Store) mutate(fn func(st *Snapshot) error) error {
	s.mu.Lock()
	err := fn(&s.state)
	if err == nil {
		s.state.LastUpdate = s.now()
	}
	s.mu.Unlock()
	if err == nil {
		select {
		case s.changed <- struct{}{}:
		default:
		}
	}
	return err
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Drivers = slices.Clone(st.Drivers)
	st.Positions = slices.Clone(st.Positions)
	st.Intervals = slices.Clone(st.Intervals)
	st.CarData = maps.Clone(st.CarData)
	st.Locations = maps.Clone(st.Locations)
	st.Alerts = slices.Clone(st.Alerts)
	st.Selection = slices.Clone(st.Selection)
	st.Tyres = maps.Clone(st.Tyres)
	if st.Weather != nil {
		w := *st.Weather
		st.Weather = &w
	}
	if st.SessionInfo != nil {
		si := *st.SessionInfo
		st.SessionInfo = &si
	}
	return st
}

// SetDrivers replaces the driver list. The first time a non-empty list
// arrives, the first drivers are selected if nothing is selected yet.
func (s *Store) SetDrivers(drivers []model.Driver) {
	_ = s.mutate(func(st *Snapshot) error {
		st.Drivers = slices.Clone(drivers)
		if len(drivers) > 0 && !s.driversSeen {
			s.driversSeen = true
			if len(st.Selection) == 0 {
				n := min(autoSelectCount, s.maxSelection, len(drivers))
				st.Selection = make([]int, 0, n)
				for _, d := range drivers[:n] {
					st.Selection = append(st.Selection, d.DriverNumber)
				}
			}
		}
		return nil
	})
}

// SetPositions stores the latest row per driver ordered by position
func (s *Store) SetPositions(rows []model.DriverRow) {
	_ = s.mutate(func(st *Snapshot) error {
		latest := LatestPerDriver(rows)
		slices.SortStableFunc(latest, func(a, b model.DriverRow) int {
			return a.Position - b.Position
		})
		st.Positions = latest
		for _, r := range latest {
			h := s.positionRing(r.DriverNumber)
			if last, ok := h.last(); !ok || r.Date.After(last.Date) {
				h.push(r)
			}
		}
		return nil
	})
}

func (s *Store) SetIntervals(intervals []model.Interval) {
	_ = s.mutate(func(st *Snapshot) error {
		st.Intervals = LatestPerDriver(intervals)
		return nil
	})
}

// SetCarData merges the samples into the keyed telemetry
func (s *Store) SetCarData(samples []model.CarData) {
	s.SetCarDataMap(KeyByDriver(samples))
}

func (s *Store) SetCarDataMap(samples map[int]model.CarData) {
	_ = s.mutate(func(st *Snapshot) error {
		MergeLatest(st.CarData, samples)
		for k := range samples {
			cur := st.CarData[k]
			h := s.carRing(k)
			if last, ok := h.last(); !ok || cur.Date.After(last.Date) {
				h.push(cur)
			}
		}
		return nil
	})
}

func (s *Store) SetLocations(samples []model.Location) {
	s.SetLocationsMap(KeyByDriver(samples))
}

func (s *Store) SetLocationsMap(samples map[int]model.Location) {
	_ = s.mutate(func(st *Snapshot) error {
		MergeLatest(st.Locations, samples)
		return nil
	})
}

// SetWeather replaces the weather. nil clears it.
func (s *Store) SetWeather(w *model.Weather) {
	_ = s.mutate(func(st *Snapshot) error {
		if w == nil {
			st.Weather = nil
			return nil
		}
		cp := *w
		st.Weather = &cp
		return nil
	})
}

func (s *Store) SetTyres(tyres []model.TyreState) {
	_ = s.mutate(func(st *Snapshot) error {
		for _, t := range tyres {
			st.Tyres[t.DriverNumber] = t
		}
		return nil
	})
}

func (s *Store) SetSessionInfo(si *model.SessionInfo) {
	_ = s.mutate(func(st *Snapshot) error {
		if si == nil {
			st.SessionInfo = nil
			return nil
		}
		cp := *si
		st.SessionInfo = &cp
		return nil
	})
}

func (s *Store) SetConnectionStatus(status model.ConnectionStatus) {
	_ = s.mutate(func(st *Snapshot) error {
		if st.ConnectionStatus != status {
			s.l.Debug("connection status changed",
				log.String("from", string(st.ConnectionStatus)),
				log.String("to", string(status)))
		}
		st.ConnectionStatus = status
		return nil
	})
}

func (s *Store) SetDegraded(degraded bool) {
	_ = s.mutate(func(st *Snapshot) error {
		st.Degraded = degraded
		return nil
	})
}

// ResetSessionData clears all data belonging to a session.
// Drivers, selection and UI state are kept.
func (s *Store) ResetSessionData() {
	_ = s.mutate(func(st *Snapshot) error {
		clearSession(st)
		s.carHistory = map[int]*ring[model.CarData]{}
		s.posHistory = map[int]*ring[model.DriverRow]{}
		s.dismissed = nil
		return nil
	})
}

// Reset clears the session data together with drivers, selection and
// session info. The next driver list is auto-selected again.
func (s *Store) Reset() {
	_ = s.mutate(func(st *Snapshot) error {
		clearSession(st)
		st.Drivers = []model.Driver{}
		st.Selection = []int{}
		st.SessionInfo = nil
		s.driversSeen = false
		s.carHistory = map[int]*ring[model.CarData]{}
		s.posHistory = map[int]*ring[model.DriverRow]{}
		s.dismissed = nil
		return nil
	})
}

func clearSession(st *Snapshot) {
	st.Positions = []model.DriverRow{}
	st.Intervals = []model.Interval{}
	st.CarData = map[int]model.CarData{}
	st.Locations = map[int]model.Location{}
	st.Weather = nil
	st.Alerts = []model.Alert{}
	st.Tyres = map[int]model.TyreState{}
}

func (s *Store) carRing(driver int) *ring[model.CarData] {
	h, ok := s.carHistory[driver]
	if !ok {
		h = newRing[model.CarData](s.historySize)
		s.carHistory[driver] = h
	}
	return h
}

func (s *Store) positionRing(driver int) *ring[model.DriverRow] {
	h, ok := s.posHistory[driver]
	if !ok {
		h = newRing[model.DriverRow](s.historySize)
		s.posHistory[driver] = h
	}
	return h
}

// CarHistory returns the recorded samples of the driver, oldest first
func (s *Store) CarHistory(driver int) []model.CarData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.carHistory[driver]; ok {
		return h.values()
	}
	return []model.CarData{}
}

func (s *Store) PositionHistory(driver int) []model.DriverRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.posHistory[driver]; ok {
		return h.values()
	}
	return []model.DriverRow{}
}
