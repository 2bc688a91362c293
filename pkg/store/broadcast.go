package store

import (
	"context"

	"github.com/mpapenbr/f1-livetiming-go/pkg/utils/broadcast"
)

// Broadcast publishes a snapshot after each change until ctx is done.
// Only one broadcast server per store is supported.
func (s *Store) Broadcast(ctx context.Context) broadcast.Server[Snapshot] {
	src := make(chan Snapshot)
	srv := broadcast.NewServer("store", src,
		broadcast.WithReplayLast[Snapshot](),
		broadcast.WithLogger[Snapshot](s.l.Named("broadcast")))
	go func() {
		defer close(src)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.changed:
				select {
				case src <- s.Snapshot():
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return srv
}
