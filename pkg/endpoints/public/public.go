package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/calendar"
	"github.com/mpapenbr/f1-livetiming-go/pkg/mock"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/broadcast"
	"github.com/mpapenbr/f1-livetiming-go/version"
)

// MockControl pauses and resumes the mock session clock
type MockControl interface {
	Pause()
	Resume()
}

// Standings provides season results and championship tables
type Standings interface {
	SeasonResults(ctx context.Context, season int) ([]model.Race, error)
	DriverStandings(ctx context.Context, season int) ([]model.DriverStanding, error)
	ConstructorStandings(ctx context.Context, season int) ([]model.ConstructorStanding, error)
}

type Meetings interface {
	Meetings(ctx context.Context, year int) []model.Meeting
}

type (
	Server struct {
		store      *store.Store
		source     broadcast.Server[store.Snapshot]
		mock       MockControl
		standings  Standings
		meetings   Meetings
		season     int
		now        func() time.Time
		ready      func() bool
		rateLimit  int
		rateWindow time.Duration
		validate   *validator.Validate
		upgrader   websocket.Upgrader
		l          *log.Logger
	}
	Option func(*Server)

	endpoint struct {
		pattern string
		handler http.HandlerFunc
		action  bool
	}
)

// WithSource sets the snapshot broadcast used by the live stream
func WithSource(arg broadcast.Server[store.Snapshot]) Option {
	return func(s *Server) {
		s.source = arg
	}
}

func WithMockControl(arg MockControl) Option {
	return func(s *Server) {
		s.mock = arg
	}
}

func WithStandings(arg Standings) Option {
	return func(s *Server) {
		s.standings = arg
	}
}

func WithMeetings(arg Meetings) Option {
	return func(s *Server) {
		s.meetings = arg
	}
}

// WithSeason sets the season for results and standings (0 = current)
func WithSeason(arg int) Option {
	return func(s *Server) {
		s.season = arg
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithReady sets the function consulted by the health check
func WithReady(arg func() bool) Option {
	return func(s *Server) {
		s.ready = arg
	}
}

// WithActionRateLimit limits the user actions per client ip
func WithActionRateLimit(limit int, window time.Duration) Option {
	return func(s *Server) {
		s.rateLimit = limit
		s.rateWindow = window
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.l = l
	}
}

func NewServer(st *store.Store, opts ...Option) *Server {
	ret := &Server{
		store:      st,
		now:        time.Now,
		ready:      func() bool { return true },
		rateLimit:  30,
		rateWindow: time.Minute,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		l:          log.Default().Named("public"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      func(r *http.Request) bool { return true },
	}
	return ret
}

func (s *Server) endpoints() []endpoint {
	return []endpoint{
		{pattern: "GET /api/state", handler: s.getState},
		{pattern: "GET /api/live", handler: s.live},
		{pattern: "GET /api/version", handler: s.getVersion},
		{pattern: "POST /api/selection", handler: s.setSelection, action: true},
		{pattern: "POST /api/selection/{driver}", handler: s.selectDriver, action: true},
		{pattern: "DELETE /api/selection/{driver}", handler: s.deselectDriver, action: true},
		{pattern: "DELETE /api/alerts/{index}", handler: s.dismissAlert, action: true},
		{pattern: "PUT /api/telemetry-channel", handler: s.setTelemetryChannel, action: true},
		{pattern: "PUT /api/circuit", handler: s.setCircuit, action: true},
		{pattern: "POST /api/mock/pause", handler: s.pauseMock, action: true},
		{pattern: "POST /api/mock/resume", handler: s.resumeMock, action: true},
		{pattern: "GET /api/upcoming", handler: s.getUpcoming},
		{pattern: "GET /api/standings/drivers", handler: s.getDriverStandings},
		{pattern: "GET /api/standings/constructors", handler: s.getConstructorStandings},
		{pattern: "GET /api/results", handler: s.getResults},
	}
}

// Handler returns the routes wrapped with CORS handling
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	limiter := httprate.LimitByIP(s.rateLimit, s.rateWindow)
	for _, e := range s.endpoints() {
		var h http.Handler = e.handler
		if e.action {
			h = limiter(h)
		}
		mux.Handle(e.pattern, h)
	}
	path, handler := newHealthHandler(s.ready)
	mux.Handle(path, handler)
	return newCORS().Handler(mux)
}

func newCORS() *cors.Cors {
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.l.Error("could not marshal response", log.ErrorField(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client gone
	w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(target); err != nil {
		return err
	}
	return s.validate.Struct(target)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	data, err := json.Marshal(&snap)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	etag := utils.ETag(data)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // client gone
	w.Write(data)
}

func (s *Server) getVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"version":   version.Version,
		"gitCommit": version.GitCommit,
		"buildDate": version.BuildDate,
	})
}

type selectionRequest struct {
	Drivers []int `json:"drivers" validate:"dive,gt=0"`
}

type selectionResponse struct {
	Selection []int `json:"selection"`
}

func (s *Server) setSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetSelection(req.Drivers); err != nil {
		s.writeError(w, selectionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, selectionResponse{Selection: s.store.Selection()})
}

func selectionStatus(err error) int {
	if errors.Is(err, store.ErrSelectionFull) {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

func (s *Server) selectDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := pathInt(r, "driver")
	if err != nil || driver <= 0 {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid driver number"))
		return
	}
	if err := s.store.SelectDriver(driver); err != nil {
		s.writeError(w, selectionStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, selectionResponse{Selection: s.store.Selection()})
}

func (s *Server) deselectDriver(w http.ResponseWriter, r *http.Request) {
	driver, err := pathInt(r, "driver")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid driver number"))
		return
	}
	s.store.DeselectDriver(driver)
	s.writeJSON(w, http.StatusOK, selectionResponse{Selection: s.store.Selection()})
}

func (s *Server) dismissAlert(w http.ResponseWriter, r *http.Request) {
	index, err := pathInt(r, "index")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid alert index"))
		return
	}
	if err := s.store.DismissAlert(index); err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type channelRequest struct {
	Channel model.TelemetryChannel `json:"channel" validate:"required"`
}

func (s *Server) setTelemetryChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetTelemetryChannel(req.Channel); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}

type circuitRequest struct {
	Circuit model.Circuit `json:"circuit" validate:"required"`
}

func (s *Server) setCircuit(w http.ResponseWriter, r *http.Request) {
	var req circuitRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.SetCircuit(req.Circuit); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}

func (s *Server) pauseMock(w http.ResponseWriter, r *http.Request) {
	s.setMockPaused(w, true)
}

func (s *Server) resumeMock(w http.ResponseWriter, r *http.Request) {
	s.setMockPaused(w, false)
}

func (s *Server) setMockPaused(w http.ResponseWriter, paused bool) {
	if s.mock != nil {
		if paused {
			s.mock.Pause()
		} else {
			s.mock.Resume()
		}
	}
	s.store.SetMockPaused(paused)
	s.writeJSON(w, http.StatusOK, s.store.Snapshot().UI)
}

func (s *Server) getUpcoming(w http.ResponseWriter, r *http.Request) {
	limit := calendar.DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}
	now := s.now()
	var meetings []model.Meeting
	if s.meetings != nil {
		meetings = s.meetings.Meetings(r.Context(), now.Year())
	}
	s.writeJSON(w, http.StatusOK,
		calendar.Next(now, limit, meetings, mock.FallbackCalendar()))
}

func (s *Server) seasonParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("season")
	if v == "" {
		return s.season, nil
	}
	season, err := strconv.Atoi(v)
	if err != nil || season < 1950 {
		return 0, errors.New("invalid season")
	}
	return season, nil
}

// serveStandings handles the common part of the Jolpica backed endpoints
//
//nolint:whitespace // can't make both editor and linter happy
func serveStandings[T any](
	s *Server,
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, season int) ([]T, error),
) {
	if s.standings == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("standings not configured"))
		return
	}
	season, err := s.seasonParam(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	items, err := fetch(r.Context(), season)
	if err != nil {
		s.l.Warn("could not fetch standings", log.ErrorField(err))
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) getDriverStandings(w http.ResponseWriter, r *http.Request) {
	serveStandings(s, w, r, func(ctx context.Context, season int) ([]model.DriverStanding, error) {
		return s.standings.DriverStandings(ctx, season)
	})
}

//nolint:lll // ok
func (s *Server) getConstructorStandings(w http.ResponseWriter, r *http.Request) {
	serveStandings(s, w, r, func(ctx context.Context, season int) ([]model.ConstructorStanding, error) {
		return s.standings.ConstructorStandings(ctx, season)
	})
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	serveStandings(s, w, r, func(ctx context.Context, season int) ([]model.Race, error) {
		return s.standings.SeasonResults(ctx, season)
	})
}
