package serve

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/livefeed"
)

type (
	// feedService runs the connection manager until the supervisor stops it
	feedService struct {
		m *livefeed.Manager
	}

	// httpService adapts an http.Server to the suture lifecycle.
	httpService struct {
		name            string
		server          *http.Server
		tls             bool
		shutdownTimeout time.Duration
		listen          func(network, addr string) (net.Listener, error)
		l               *log.Logger
	}

	// certWatchService reloads the TLS key pair on file changes
	certWatchService struct {
		c *certs
	}
)

func (f *feedService) Serve(ctx context.Context) error {
	f.m.Connect(ctx)
	<-ctx.Done()
	f.m.Disconnect()
	return ctx.Err()
}

func (f *feedService) String() string { return "livefeed" }

func newHTTPService(name string, server *http.Server, tls bool) *httpService {
	return &httpService{
		name:            name,
		server:          server,
		tls:             tls,
		shutdownTimeout: 10 * time.Second,
		listen:          net.Listen,
		l:               log.Default().Named("serve." + name),
	}
}

func (h *httpService) Serve(ctx context.Context) error {
	ln, err := h.listen("tcp", h.server.Addr)
	if err != nil {
		return err
	}
	h.l.Info("Starting HTTP server", log.String("addr", ln.Addr().String()))
	errCh := make(chan error, 1)
	go func() {
		var err error
		if h.tls {
			err = h.server.ServeTLS(ln, "", "")
		} else {
			err = h.server.Serve(ln)
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err, ok := <-errCh:
		if ok {
			h.l.Error("server stopped", log.ErrorField(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	//nolint:contextcheck // parent is done already
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		h.l.Warn("graceful shutdown failed", log.ErrorField(err))
		return err
	}
	h.l.Info("HTTP server stopped")
	return ctx.Err()
}

func (h *httpService) String() string { return h.name }

func (c *certWatchService) Serve(ctx context.Context) error {
	return c.c.watch(ctx)
}

func (c *certWatchService) String() string { return "cert-watch" }

// eventHook forwards supervisor events to the logger
func eventHook(l *log.Logger) suture.EventHook {
	return func(e suture.Event) {
		switch e.Type() {
		case suture.EventTypeServicePanic, suture.EventTypeServiceTerminate:
			l.Warn(e.String(), log.Any("event", e.Map()))
		case suture.EventTypeBackoff:
			l.Error(e.String(), log.Any("event", e.Map()))
		default:
			l.Info(e.String(), log.Any("event", e.Map()))
		}
	}
}

func newSupervisor(l *log.Logger) *suture.Supervisor {
	return suture.New("f1l", suture.Spec{
		EventHook:        eventHook(l),
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
