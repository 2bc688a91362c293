package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/f1-livetiming-go/log"
)

//nolint:lll // readability
// see https://betterprogramming.pub/how-to-broadcast-messages-in-go-using-channels-b68f42bdf32e

type Server[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
}

type broadcastServer[T any] struct {
	name           string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	last           *T
	replayLast     bool
	skipTimeout    time.Duration
	numRcv         atomic.Int64
	numSnd         atomic.Int64
	numSkip        atomic.Int64
	numListeners   atomic.Int64
	l              *log.Logger
}

type Option[T any] func(*broadcastServer[T])

// WithReplayLast sends the most recent message to new subscribers
func WithReplayLast[T any]() Option[T] {
	return func(b *broadcastServer[T]) {
		b.replayLast = true
	}
}

// WithSkipTimeout sets how long a slow listener may block a message
func WithSkipTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.skipTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *broadcastServer[T]) {
		b.l = l
	}
}

// Subscribe returns a buffered channel receiving the broadcast messages.
// The channel is closed when the server is closed or the subscription is cancelled.
func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T, 1)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *broadcastServer[T]) Close() {
	b.l.Info("Closing broadcast server",
		log.Int64("rcv", b.numRcv.Load()),
		log.Int64("snd", b.numSnd.Load()),
		log.Int64("skip", b.numSkip.Load()))
	b.cancel()
	<-b.done
}

//nolint:whitespace // false positive
func NewServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		skipTimeout:    50 * time.Millisecond,
		l:              log.Default().Named("broadcast").With(log.String("name", name)),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.setupMetrics()
	go b.serve()
	return b
}

func (b *broadcastServer[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("f1l.broadcast.%s", b.name))
	register := func(metricName, desc string, value *atomic.Int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load(),
					metric.WithAttributes(attribute.String("name", b.name)))
				return nil
			})); err != nil {
			b.l.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	register("f1l.broadcast.rcv", "Number of received messages", &b.numRcv)
	register("f1l.broadcast.snd", "Number of sent messages", &b.numSnd)
	register("f1l.broadcast.skip", "Number of skipped messages", &b.numSkip)
	register("f1l.broadcast.listener", "Number of listeners", &b.numListeners)
}

//nolint:cyclop // select loop
func (b *broadcastServer[T]) serve() {
	defer func() {
		b.l.Debug("Closing listeners", log.Int("num", len(b.listeners)))
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			return
		case ch := <-b.addListener:
			if b.replayLast && b.last != nil {
				ch <- *b.last
			}
			b.listeners = append(b.listeners, ch)
			b.numListeners.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			for i, listener := range b.listeners {
				if listener == ch {
					b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
					close(listener)
					break
				}
			}
			b.numListeners.Store(int64(len(b.listeners)))
		case msg, ok := <-b.source:
			if !ok {
				b.l.Debug("source closed")
				return
			}
			b.numRcv.Add(1)
			if b.replayLast {
				m := msg
				b.last = &m
			}
			b.dispatch(msg)
		}
	}
}

func (b *broadcastServer[T]) dispatch(msg T) {
	for _, listener := range b.listeners {
		select {
		case listener <- msg:
			b.numSnd.Add(1)
		case <-time.After(b.skipTimeout):
			b.numSkip.Add(1)
		}
	}
}
