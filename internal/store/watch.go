package store

import (
	"context"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/logger"
)

// retryDelay is how long Watch waits before reloading after a failed read.
var retryDelay = time.Second

// Watch streams full, ordered snapshots of the owner's collection: one right
// away and one after every change. Snapshots may repeat unchanged data.
// The channel is closed once ctx is done.
func Watch[T any](ctx context.Context, s *Store, coll Collection, owner string, order Order) (<-chan []T, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if _, err := model(coll); err != nil {
		return nil, err
	}

	// listen before the first read so no change slips between the two
	changes, stop := s.hub.Listen(coll, owner)
	out := make(chan []T, 1)

	go func() {
		defer close(out)
		defer stop()

		for {
			var items []T
			if err := s.List(ctx, coll, owner, order, &items); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Warn("watch reload failed",
					"collection", coll,
					logger.FieldUserID, owner,
					logger.FieldError, err)
				select {
				case <-time.After(retryDelay):
					continue
				case <-ctx.Done():
					return
				}
			}

			select {
			case out <- items:
			case <-ctx.Done():
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
