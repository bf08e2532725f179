// Package notify delivers ledger events to external observers.
package notify

import (
	"context"

	"github.com/mcoot/gamepoints/internal/model"
)

// Notifier receives events after the mutation that produced them commits.
// Implementations must not block the caller for long and never fail the
// mutation: delivery problems are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, event model.Event)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(ctx context.Context, event model.Event)

func (f NotifierFunc) Notify(ctx context.Context, event model.Event) {
	f(ctx, event)
}

// Nop discards every event
var Nop Notifier = NotifierFunc(func(context.Context, model.Event) {})

// Fanout delivers each event to every notifier in order
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, event model.Event) {
	for _, n := range f {
		if n != nil {
			n.Notify(ctx, event)
		}
	}
}
