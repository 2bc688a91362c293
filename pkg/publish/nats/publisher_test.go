package nats

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-livetiming-go/pkg/model"
	"github.com/mpapenbr/f1-livetiming-go/pkg/store"
)

func startServer(t *testing.T) *server.Server {
	t.Helper()
	ns, err := server.NewServer(&server.Options{
		ServerName: "livetiming-test",
		Host:       "127.0.0.1",
		Port:       -1,
		JetStream:  true,
		StoreDir:   t.TempDir(),
		NoLog:      true,
	})
	require.NoError(t, err)
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("nats server not ready")
	}
	t.Cleanup(ns.Shutdown)
	return ns
}

func TestPublisher(t *testing.T) {
	ns := startServer(t)
	conn, err := nats.Connect(ns.ClientURL())
	require.NoError(t, err)

	sub, err := conn.SubscribeSync(DefaultSubject)
	require.NoError(t, err)

	s := store.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p, err := NewPublisher(conn, s.Broadcast(ctx))
	require.NoError(t, err)
	defer p.Close()

	done := make(chan error, 1)
	go func() { done <- p.Serve(ctx) }()

	s.SetDrivers([]model.Driver{{DriverNumber: 44, NameAcronym: "HAM"}})

	var got store.Snapshot
	require.Eventually(t, func() bool {
		msg, err := sub.NextMsg(100 * time.Millisecond)
		if err != nil {
			return false
		}
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			return false
		}
		return len(got.Drivers) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "HAM", got.Drivers[0].NameAcronym)
	assert.Equal(t, []int{44}, got.Selection)

	require.Eventually(t, func() bool {
		entry, err := p.kv.Get(context.Background(), DefaultKey)
		if err != nil {
			return false
		}
		var kvState store.Snapshot
		return json.Unmarshal(entry.Value(), &kvState) == nil && len(kvState.Drivers) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop")
	}
}
