package nats

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/broadcast"
)

const (
	DefaultSubject = "livetiming.state"
	DefaultBucket  = "livetiming"
	DefaultKey     = "state"
)

type (
	Publisher struct {
		conn    *nats.Conn
		source  broadcast.Server[store.Snapshot]
		kv      jetstream.KeyValue
		subject string
		bucket  string
		key     string
		ttl     time.Duration
		l       *log.Logger
	}
	Option func(*Publisher)
)

func WithSubject(arg string) Option {
	return func(p *Publisher) {
		p.subject = arg
	}
}

func WithBucket(arg string) Option {
	return func(p *Publisher) {
		p.bucket = arg
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

// NewPublisher creates the key value bucket if needed
//
//nolint:whitespace // can't make both editor and linter happy
func NewPublisher(
	conn *nats.Conn,
	source broadcast.Server[store.Snapshot],
	opts ...Option,
) (*Publisher, error) {
	ret := &Publisher{
		conn:    conn,
		source:  source,
		subject: DefaultSubject,
		bucket:  DefaultBucket,
		key:     DefaultKey,
		ttl:     24 * time.Hour,
		l:       log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if err := ret.setupKV(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (p *Publisher) setupKV() error {
	var js jetstream.JetStream
	var err error
	if js, err = jetstream.New(p.conn); err != nil {
		return err
	}
	p.kv, err = js.CreateOrUpdateKeyValue(context.Background(), jetstream.KeyValueConfig{
		Bucket: p.bucket,
		TTL:    p.ttl,
	})
	return err
}

// Publish sends the snapshot to the subject and stores it in the bucket
func (p *Publisher) Publish(ctx context.Context, snap *store.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}
	rev, err := p.kv.Put(ctx, p.key, data)
	if err != nil {
		return err
	}
	p.l.Debug("state put", log.Uint64("rev", rev), log.Int("size", len(data)))
	return nil
}

// Serve publishes every snapshot of the source until ctx is done
func (p *Publisher) Serve(ctx context.Context) error {
	ch := p.source.Subscribe()
	defer p.source.CancelSubscription(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				p.l.Debug("snapshot source closed")
				return nil
			}
			if err := p.Publish(ctx, &snap); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.l.Warn("could not publish state", log.ErrorField(err))
			}
		}
	}
}

func (p *Publisher) Close() {
	p.conn.Close()
}
