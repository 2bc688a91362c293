//nolint:funlen // ok for tests
package public

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fakeMock struct{ paused bool }

func (f *fakeMock) Pause()  { f.paused = true }
func (f *fakeMock) Resume() { f.paused = false }

type fakeStandings struct {
	season int
	err    error
}

func (f *fakeStandings) SeasonResults(ctx context.Context, season int) ([]model.Race, error) {
	f.season = season
	return []model.Race{{Season: "2024", Round: "1", RaceName: "Bahrain Grand Prix"}}, f.err
}

//nolint:whitespace // can't make both editor and linter happy
func (f *fakeStandings) DriverStandings(
	ctx context.Context, season int,
) ([]model.DriverStanding, error) {
	f.season = season
	return []model.DriverStanding{{Position: "1", Points: "437"}}, f.err
}

//nolint:whitespace // can't make both editor and linter happy
func (f *fakeStandings) ConstructorStandings(
	ctx context.Context, season int,
) ([]model.ConstructorStanding, error) {
	f.season = season
	return nil, f.err
}

type fakeMeetings []model.Meeting

func (f fakeMeetings) Meetings(ctx context.Context, year int) []model.Meeting {
	return f
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetState_ETag(t *testing.T) {
	st := store.New()
	st.SetDrivers([]model.Driver{{DriverNumber: 1, NameAcronym: "VER"}})
	h := NewServer(st).Handler()

	rec := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "VER", snap.Drivers[0].NameAcronym)
	assert.Equal(t, []int{1}, snap.Selection)

	req := httptest.NewRequest(http.MethodGet, "/api/state", http.NoBody)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	st.SetDegraded(true)
	rec = do(t, h, http.MethodGet, "/api/state", "")
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestSelection(t *testing.T) {
	st := store.New(store.WithMaxSelection(3))
	h := NewServer(st).Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		want   []int
	}{
		{"set", http.MethodPost, "/api/selection", `{"drivers":[44,1]}`, http.StatusOK, []int{44, 1}},
		{"invalid number", http.MethodPost, "/api/selection", `{"drivers":[0]}`, http.StatusBadRequest, []int{44, 1}},
		{"invalid json", http.MethodPost, "/api/selection", `{"drivers":`, http.StatusBadRequest, []int{44, 1}},
		{"too many", http.MethodPost, "/api/selection", `{"drivers":[1,2,3,4]}`, http.StatusConflict, []int{44, 1}},
		{"select", http.MethodPost, "/api/selection/16", "", http.StatusOK, []int{44, 1, 16}},
		{"full", http.MethodPost, "/api/selection/81", "", http.StatusConflict, []int{44, 1, 16}},
		{"bad path", http.MethodPost, "/api/selection/abc", "", http.StatusBadRequest, []int{44, 1, 16}},
		{"deselect", http.MethodDelete, "/api/selection/1", "", http.StatusOK, []int{44, 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, st.Selection())
		})
	}
}

func TestDismissAlert(t *testing.T) {
	st := store.New()
	st.AddAlerts([]model.Alert{
		{Date: now, Message: "GREEN FLAG"},
		{Date: now.Add(time.Minute), Message: "SAFETY CAR DEPLOYED"},
	})
	h := NewServer(st).Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/alerts/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodDelete, "/api/alerts/x", "").Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/alerts/0", "").Code)
	alerts := st.Snapshot().Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, "GREEN FLAG", alerts[0].Message)
}

func TestUIActions(t *testing.T) {
	st := store.New()
	fm := &fakeMock{}
	h := NewServer(st, WithMockControl(fm)).Handler()

	assert.Equal(t, http.StatusOK,
		do(t, h, http.MethodPut, "/api/telemetry-channel", `{"channel":"rpm"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPut, "/api/telemetry-channel", `{"channel":"boost"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPut, "/api/telemetry-channel", `{}`).Code)
	assert.Equal(t, http.StatusOK,
		do(t, h, http.MethodPut, "/api/circuit", `{"circuit":"monaco"}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPut, "/api/circuit", `{"circuit":"nurburgring"}`).Code)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/mock/pause", "").Code)
	assert.True(t, fm.paused)
	ui := st.Snapshot().UI
	assert.Equal(t, store.UIState{
		TelemetryChannel: model.ChannelRPM,
		Circuit:          model.CircuitMonaco,
		MockPaused:       true,
	}, ui)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/mock/resume", "").Code)
	assert.False(t, fm.paused)
	assert.False(t, st.Snapshot().UI.MockPaused)
}

func TestActionRateLimit(t *testing.T) {
	h := NewServer(store.New(), WithActionRateLimit(2, time.Minute)).Handler()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/mock/pause", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/mock/resume", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodPost, "/api/mock/pause", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/state", "").Code, "reads are not limited")
}

func TestUpcoming(t *testing.T) {
	meetings := fakeMeetings{
		{MeetingName: "Past", DateStart: now.Add(-time.Hour)},
		{MeetingName: "Later", DateStart: now.Add(48 * time.Hour)},
		{MeetingName: "Soon", DateStart: now.Add(24 * time.Hour)},
	}
	h := NewServer(store.New(), WithMeetings(meetings), WithClock(func() time.Time { return now })).Handler()
	rec := do(t, h, http.MethodGet, "/api/upcoming?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []model.Meeting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Soon", got[0].MeetingName)

	// without api data the embedded calendar is used
	h = NewServer(store.New(), WithClock(func() time.Time { return now })).Handler()
	rec = do(t, h, http.MethodGet, "/api/upcoming", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "British Grand Prix", got[0].MeetingName)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/upcoming?limit=x", "").Code)
}

func TestStandings(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable,
		do(t, NewServer(store.New()).Handler(), http.MethodGet, "/api/results", "").Code)

	fs := &fakeStandings{}
	h := NewServer(store.New(), WithStandings(fs), WithSeason(2024)).Handler()

	rec := do(t, h, http.MethodGet, "/api/standings/drivers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, fs.season)
	assert.Contains(t, rec.Body.String(), "437")

	rec = do(t, h, http.MethodGet, "/api/standings/constructors?season=2023", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, fs.season)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/results", "")
	assert.Contains(t, rec.Body.String(), "Bahrain Grand Prix")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/results?season=abc", "").Code)

	fs.err = errors.New("upstream down")
	assert.Equal(t, http.StatusBadGateway, do(t, h, http.MethodGet, "/api/results", "").Code)
}

func TestHealth(t *testing.T) {
	ready := true
	h := NewServer(store.New(), WithReady(func() bool { return ready })).Handler()
	check := func() string {
		rec := do(t, h, http.MethodPost, "/grpc.health.v1.Health/Check", `{}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return rec.Body.String()
	}
	assert.Contains(t, check(), "SERVING")
	ready = false
	assert.Contains(t, check(), "NOT_SERVING")
}

func TestLive(t *testing.T) {
	st := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := httptest.NewServer(NewServer(st, WithSource(st.Broadcast(ctx))).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	st.SetDrivers([]model.Driver{{DriverNumber: 63, NameAcronym: "RUS"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var env model.Envelope
		require.NoError(t, json.Unmarshal(data, &env))
		assert.Equal(t, model.MTState, env.Type)
		var snap store.Snapshot
		require.NoError(t, json.Unmarshal(env.Data, &snap))
		if len(snap.Drivers) == 1 {
			assert.Equal(t, "RUS", snap.Drivers[0].NameAcronym)
			break
		}
	}
}
