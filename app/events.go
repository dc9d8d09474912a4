package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artpar/relay/domain/connectivity"
	"github.com/artpar/relay/ports"
)

// Broadcaster publishes connectivity transitions as events. Repeated
// observations of the same state are absorbed; every real transition is
// published exactly once to all subscribers.
type Broadcaster struct {
	tracker    connectivity.Tracker
	dispatcher *Dispatcher
	log        zerolog.Logger
}

var _ ports.Connectivity = (*Broadcaster)(nil)

func NewBroadcaster(d *Dispatcher, log zerolog.Logger) *Broadcaster {
	return &Broadcaster{dispatcher: d, log: log}
}

// Connected reports the last observed link state.
func (b *Broadcaster) Connected() bool {
	return b.tracker.Connected()
}

// Observe records a link state observation, publishing a Changed event
// when the state actually transitioned. Subscriber errors are reported
// back but do not prevent other subscribers from running.
func (b *Broadcaster) Observe(ctx context.Context, connected bool) error {
	if !b.tracker.Observe(connected) {
		return nil
	}
	b.log.Info().Bool("connected", connected).Msg("connectivity changed")
	return b.dispatcher.Publish(ctx, connectivity.Changed{Connected: connected})
}
