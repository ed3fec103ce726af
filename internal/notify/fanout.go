package notify

import (
	"context"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fanout delivers to every wrapped notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n model.Notification) {
	for _, next := range f {
		next.Notify(ctx, n)
	}
}

const broadcastLimit = 8

// Broadcast sends a copy of n to each user id, a few at a time.
func Broadcast(ctx context.Context, notifier Notifier, userIDs []string, n model.Notification) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastLimit)
	for _, id := range userIDs {
		msg := n
		msg.UserID = id
		g.Go(func() error {
			notifier.Notify(gctx, msg)
			return nil
		})
	}
	_ = g.Wait()
}
