package public

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
)

const (
	liveWriteTimeout = 10 * time.Second
	livePingInterval = 30 * time.Second
)

// live streams every store snapshot as a state envelope over a websocket
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeError(w, http.StatusServiceUnavailable, errors.New("live stream not available"))
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.l.Warn("websocket upgrade failed", log.ErrorField(err))
		return
	}
	defer conn.Close()

	id := uuid.New().String()
	l := s.l.With(log.String("subscriber", id))
	l.Debug("live subscriber connected", log.String("remote", r.RemoteAddr))

	ch := s.source.Subscribe()
	defer s.source.CancelSubscription(ch)

	// the reader only detects the client going away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(livePingInterval)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			l.Debug("live subscriber left")
			return
		case <-r.Context().Done():
			return
		case <-ping.C:
			//nolint:errcheck // detected by the reader
			conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteTimeout))
		case snap, ok := <-ch:
			if !ok {
				//nolint:errcheck // closing anyway
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"))
				return
			}
			data, err := json.Marshal(&snap)
			if err != nil {
				l.Error("could not marshal snapshot", log.ErrorField(err))
				continue
			}
			msg, err := json.Marshal(model.Envelope{
				Type:      model.MTState,
				Data:      data,
				Timestamp: snap.LastUpdate,
			})
			if err != nil {
				l.Error("could not marshal envelope", log.ErrorField(err))
				continue
			}
			//nolint:errcheck // deadline error surfaces on write
			conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				l.Debug("write failed", log.ErrorField(err))
				return
			}
		}
	}
}
