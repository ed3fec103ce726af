// Package notify delivers booking lifecycle messages to users.
//
// Delivery is best effort: a Notifier never returns an error to the caller
// and never blocks the booking that triggered it.
package notify

import (
	"context"

	"github.com/Freeeeeet/booking_desk/internal/model"
)

type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Func adapts a plain function to Notifier.
type Func func(ctx context.Context, n model.Notification)

func (f Func) Notify(ctx context.Context, n model.Notification) { f(ctx, n) }

// Nop discards everything.
var Nop Notifier = Func(func(context.Context, model.Notification) {})
