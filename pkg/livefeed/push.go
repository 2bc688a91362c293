package livefeed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils"
)

var (
	ErrNotConnected          = errors.New("push channel not connected")
	errIncompatibleServer    = errors.New("incompatible push server")
	errConnectionClosed      = errors.New("push connection closed")
	pushHandshakeTimeout     = 10 * time.Second
	pushMaxReconnectInterval = 30 * time.Second
)

// Conn is the subset of *websocket.Conn used by the manager
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type DialFunc func(ctx context.Context, url string) (Conn, error)

func websocketDial(ctx context.Context, url string) (Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: pushHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return conn, nil
}

func (m *Manager) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(m.retryDelay),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(pushMaxReconnectInterval),
		backoff.WithMaxElapsedTime(0),
	)
	if m.maxAttempts <= 0 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(m.maxAttempts)), ctx)
}

// pushLoop keeps the push channel alive. It returns when ctx is done or
// after the configured number of consecutive failed reconnects.
func (m *Manager) pushLoop(ctx context.Context) error {
	b := m.newBackOff(ctx)
	op := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		m.setStatus(model.StatusConnecting)
		m.dials.Add(1)
		conn, err := m.dial(ctx, m.pushURL)
		if err != nil {
			return err
		}
		m.setConn(conn)
		m.l.Info("push channel connected", log.String("url", m.pushURL))
		m.setStatus(model.StatusConnected)
		// a working connection starts a new series of attempts
		b.Reset()
		err = m.readLoop(ctx, conn)
		m.closeConn()
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if errors.Is(err, errIncompatibleServer) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		m.l.Info("push channel unavailable, reconnecting",
			log.ErrorField(err), log.Duration("next", next))
		m.setStatus(model.StatusDisconnected)
	}
	return backoff.RetryNotify(op, b, notify)
}

func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errConnectionClosed
			}
			return err
		}
		if err := m.handleMessage(data); err != nil {
			return err
		}
	}
}

func (m *Manager) setConn(conn Conn) {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	m.conn = conn
}

func (m *Manager) closeConn() {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// handleMessage applies a push envelope to the store. Undecodable payloads
// are logged and skipped.
func (m *Manager) handleMessage(data []byte) error {
	var env model.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		m.l.Warn("invalid envelope", log.ErrorField(err))
		return nil
	}
	var err error
	switch env.Type {
	case model.MTHello:
		var hello model.Hello
		if err = json.Unmarshal(env.Data, &hello); err == nil {
			if !utils.CheckPushServerVersion(hello.Version) {
				m.l.Error("push server version not supported",
					log.String("version", hello.Version),
					log.String("required", utils.RequiredPushServerVersion))
				return errIncompatibleServer
			}
			m.l.Info("push server", log.String("version", hello.Version))
		}
	case model.MTPositions:
		var rows []model.DriverRow
		if err = json.Unmarshal(env.Data, &rows); err == nil {
			m.write(func(s *store.Store) { s.SetPositions(rows) })
		}
	case model.MTCarData:
		var samples []model.CarData
		if err = json.Unmarshal(env.Data, &samples); err == nil {
			m.write(func(s *store.Store) { s.SetCarData(samples) })
		}
	case model.MTLocationData:
		var samples []model.Location
		if err = json.Unmarshal(env.Data, &samples); err == nil {
			m.write(func(s *store.Store) { s.SetLocations(samples) })
		}
	case model.MTWeather:
		var w model.Weather
		if err = json.Unmarshal(env.Data, &w); err == nil {
			m.write(func(s *store.Store) { s.SetWeather(&w) })
		}
	case model.MTRaceControl:
		var rc model.RaceControl
		if err = json.Unmarshal(env.Data, &rc); err == nil {
			m.write(func(s *store.Store) { s.AddAlert(rc.ToAlert()) })
		}
	case model.MTSessionInfo:
		var si model.SessionInfo
		if err = json.Unmarshal(env.Data, &si); err == nil {
			m.write(func(s *store.Store) { s.SetSessionInfo(&si) })
		}
	default:
		m.l.Debug("ignoring message", log.String("type", string(env.Type)))
	}
	if err != nil {
		m.l.Warn("invalid payload",
			log.String("type", string(env.Type)), log.ErrorField(err))
	}
	return nil
}

// SendCommand writes a command envelope to the push server.
// It returns ErrNotConnected while no push connection exists.
func (m *Manager) SendCommand(command string, data any) error {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.conn == nil {
		return ErrNotConnected
	}
	payload, err := json.Marshal(map[string]any{"command": command, "data": data})
	if err != nil {
		return err
	}
	msg, err := json.Marshal(model.Envelope{
		Type:      model.MTCommand,
		Data:      payload,
		Timestamp: m.now(),
	})
	if err != nil {
		return err
	}
	return m.conn.WriteMessage(websocket.TextMessage, msg)
}

// DialCount returns the number of push connection attempts
func (m *Manager) DialCount() int64 {
	return m.dials.Load()
}
